package storage_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/intake/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=intakestore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/intakestore;"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSystems(t *testing.T) map[string]storage.System {
	t.Helper()

	azure, err := storage.New(&storage.Config{
		Provider:         storage.ProviderAzure,
		ContainerName:    "submissions",
		ConnectionString: azuriteConnString,
	}, discard())
	if err != nil {
		t.Fatalf("New(azure) error = %v", err)
	}

	s3, err := storage.New(&storage.Config{
		Provider:      storage.ProviderS3,
		ContainerName: "submissions",
		S3: storage.S3Config{
			Region:          "us-east-1",
			Endpoint:        "http://127.0.0.1:4566",
			UsePathStyle:    true,
			AccessKeyID:     "test",
			SecretAccessKey: "test",
		},
	}, discard())
	if err != nil {
		t.Fatalf("New(s3) error = %v", err)
	}

	return map[string]storage.System{"azure": azure, "s3": s3}
}

func TestNewInvalidConnectionString(t *testing.T) {
	_, err := storage.New(&storage.Config{
		Provider:         storage.ProviderAzure,
		ContainerName:    "submissions",
		ConnectionString: "not-a-connection-string",
	}, discard())
	if err == nil {
		t.Fatal("expected error for invalid connection string, got nil")
	}
}

func TestNewUnsupportedProvider(t *testing.T) {
	_, err := storage.New(&storage.Config{Provider: "ftp"}, discard())
	if err == nil {
		t.Fatal("expected error for unsupported provider, got nil")
	}
}

func TestKeyValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"empty key", "", storage.ErrEmptyKey},
		{"traversal", "SUB-202603-0001/../secret", storage.ErrInvalidKey},
	}

	for provider, sys := range newSystems(t) {
		for _, tt := range tests {
			t.Run(provider+"/"+tt.name, func(t *testing.T) {
				if err := sys.Upload(ctx, tt.key, strings.NewReader("x"), "text/plain"); !errors.Is(err, tt.want) {
					t.Errorf("Upload() error = %v, want %v", err, tt.want)
				}
				if _, err := sys.Download(ctx, tt.key); !errors.Is(err, tt.want) {
					t.Errorf("Download() error = %v, want %v", err, tt.want)
				}
				if err := sys.Delete(ctx, tt.key); !errors.Is(err, tt.want) {
					t.Errorf("Delete() error = %v, want %v", err, tt.want)
				}
				if _, err := sys.Exists(ctx, tt.key); !errors.Is(err, tt.want) {
					t.Errorf("Exists() error = %v, want %v", err, tt.want)
				}
			})
		}
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ErrNotFound maps to 404", storage.ErrNotFound, http.StatusNotFound},
		{"ErrExists maps to 409", storage.ErrExists, http.StatusConflict},
		{"ErrEmptyKey maps to 400", storage.ErrEmptyKey, http.StatusBadRequest},
		{"ErrInvalidKey maps to 400", storage.ErrInvalidKey, http.StatusBadRequest},
		{"wrapped ErrNotFound maps to 404", fmt.Errorf("operation failed: %w", storage.ErrNotFound), http.StatusNotFound},
		{"unknown error maps to 500", fmt.Errorf("unexpected failure"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storage.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
