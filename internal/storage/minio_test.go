package storage

import (
	"strings"
	"testing"

	"github.com/andresuchdata/storepulse/backend-go/internal/config"
)

func TestNewMinioClientValidation(t *testing.T) {
	valid := config.StorageConfig{Endpoint: "minio:9000", AccessKey: "key", SecretKey: "secret", Bucket: "reports"}

	tests := []struct {
		name    string
		mutate  func(*config.StorageConfig)
		wantErr string
	}{
		{"missing endpoint", func(c *config.StorageConfig) { c.Endpoint = "" }, "endpoint"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKey = "" }, "credentials"},
		{"missing secret", func(c *config.StorageConfig) { c.SecretKey = "" }, "credentials"},
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := NewMinioClient(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewMinioClientEndpointScheme(t *testing.T) {
	tests := []struct {
		endpoint   string
		useSSL     bool
		wantScheme string
		wantHost   string
	}{
		{"http://minio:9000/", true, "http", "minio:9000"},
		{"https://s3.example.com", false, "https", "s3.example.com"},
		{"minio:9000", false, "http", "minio:9000"},
		{"minio:9000", true, "https", "minio:9000"},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			c, err := NewMinioClient(config.StorageConfig{
				Endpoint: tt.endpoint, AccessKey: "key", SecretKey: "secret", Bucket: "reports", UseSSL: tt.useSSL,
			})
			if err != nil {
				t.Fatalf("NewMinioClient() error = %v", err)
			}
			u := c.client.EndpointURL()
			if u.Scheme != tt.wantScheme || u.Host != tt.wantHost {
				t.Errorf("endpoint = %s://%s, want %s://%s", u.Scheme, u.Host, tt.wantScheme, tt.wantHost)
			}
		})
	}
}
