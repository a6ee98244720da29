// Package main provides a Dagger module for testing, building and publishing
// the influence service.
package main

import (
	"context"
	"dagger/influence/internal/dagger"
	"fmt"
	"strings"
)

const goImage = "golang:1.24.2-alpine"

// binaries are the commands shipped in the container image.
var binaries = []string{"rest", "db", "entrypoint"}

type Influence struct{}

// goContainer returns a Go toolchain container with module caches mounted.
func goContainer(src *dagger.Directory) *dagger.Container {
	return dag.Container().
		From(goImage).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithDirectory("/src", src).
		WithWorkdir("/src").
		WithEnvVariable("CGO_ENABLED", "0")
}

// Test runs the unit tests. Storage is exercised through in-memory fakes and
// miniredis, so no services are needed.
func (m *Influence) Test(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
) (string, error) {
	return goContainer(src).
		WithExec([]string{"go", "vet", "./..."}).
		WithExec([]string{"go", "test", "-count=1", "./..."}).
		Stdout(ctx)
}

// BuildContainer creates a container image for the project.
func (m *Influence) BuildContainer(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Platform to build for
	// +optional
	// +default="linux/amd64"
	platform *dagger.Platform,
) (*dagger.Container, error) {
	// Use default platform if none specified
	buildPlatform := dagger.Platform("linux/amd64")
	if platform != nil {
		buildPlatform = *platform
	}

	// Get architecture using containerd utility
	platformArch, err := dag.Containerd().ArchitectureOf(ctx, buildPlatform)
	if err != nil {
		return nil, fmt.Errorf("failed to get architecture: %w", err)
	}

	buildCtr := goContainer(src).
		WithEnvVariable("GOOS", "linux").
		WithEnvVariable("GOARCH", platformArch).
		WithExec([]string{"apk", "add", "--no-cache", "upx", "ca-certificates"}).
		WithExec([]string{"mkdir", "-p", "/src/bin", "/src/logs"})

	for _, binary := range binaries {
		buildCtr = buildCtr.
			WithExec([]string{
				"go", "build",
				"-ldflags=-s -w",
				"-o", "/src/bin/" + binary,
				"./cmd/" + binary,
			}).
			WithExec([]string{"upx", "--best", "--lzma", "/src/bin/" + binary})
	}

	// Create final container
	return dag.Container(dagger.ContainerOpts{Platform: buildPlatform}).
		From("gcr.io/distroless/static-debian12:latest").
		WithDirectory("/app/bin", buildCtr.Directory("/src/bin")).
		WithDirectory("/app/logs", buildCtr.Directory("/src/logs")).
		WithDirectory("/app/config", src.Directory("config")).
		WithFile("/etc/ssl/certs/ca-certificates.crt", buildCtr.File("/etc/ssl/certs/ca-certificates.crt")).
		WithWorkdir("/app").
		WithEntrypoint([]string{"/app/bin/entrypoint"}).
		WithEnvVariable("RUN_TYPE", "rest").
		WithExposedPort(8080), nil
}

// Publish the application container after building it.
func (m *Influence) Publish(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Docker image name (e.g. "username/repo:tag")
	// +required
	imageName string,
	// Platforms to build for (comma-separated, e.g. "linux/amd64,linux/arm64")
	// +optional
	// +default="linux/amd64"
	platforms string,
) (string, error) {
	if _, err := m.Test(ctx, src); err != nil {
		return "", fmt.Errorf("tests failed: %w", err)
	}

	// Parse platforms string
	var platformList []dagger.Platform
	if platforms == "" {
		platformList = []dagger.Platform{"linux/amd64"}
	} else {
		for _, p := range strings.Split(platforms, ",") {
			platformList = append(platformList, dagger.Platform(strings.TrimSpace(p)))
		}
	}

	// Build containers for each platform
	platformVariants := make([]*dagger.Container, 0, len(platformList))
	for _, platform := range platformList {
		container, err := m.BuildContainer(ctx, src, &platform)
		if err != nil {
			return "", fmt.Errorf("failed to build container for %s: %w", platform, err)
		}
		platformVariants = append(platformVariants, container)
	}

	// Publish multi-arch image
	ref, err := dag.Container().Publish(ctx, imageName, dagger.ContainerPublishOpts{
		PlatformVariants: platformVariants,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish image: %w", err)
	}

	return ref, nil
}

// Run builds and runs one command against the given config directory.
func (m *Influence) Run(
	// Source code directory
	// +required
	src *dagger.Directory,
	// Config directory path
	// +required
	configDir *dagger.Directory,
	// Command to run: "rest" or "db"
	// +required
	cmd string,
	// Arguments passed to the command, e.g. "migrate"
	// +optional
	args []string,
) *dagger.Container {
	runCtr := goContainer(src).
		WithDirectory("/etc/influence/config", configDir).
		WithExec([]string{"apk", "add", "--no-cache", "ca-certificates"}).
		WithExec([]string{"go", "build", "-o", "/src/bin/influence", "./cmd/" + cmd})

	return runCtr.WithExec(append([]string{"/src/bin/influence"}, args...))
}
