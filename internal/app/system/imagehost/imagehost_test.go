package imagehost_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/reelhub/internal/app/system/imagehost"
	"go.uber.org/zap"
)

func TestPublicID(t *testing.T) {
	got := imagehost.PublicID("user-1", "abc")
	if got != "generatedImages/user-1/abc" {
		t.Errorf("PublicID = %q", got)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  imagehost.Config
	}{
		{"empty", imagehost.Config{}},
		{"no secret", imagehost.Config{CloudName: "demo", APIKey: "k"}},
		{"no key", imagehost.Config{CloudName: "demo", APISecret: "s"}},
		{"no cloud", imagehost.Config{APIKey: "k", APISecret: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := imagehost.New(tt.cfg, zap.NewNop()); !errors.Is(err, imagehost.ErrNotConfigured) {
				t.Errorf("expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestUploadImage_RejectsEmpty(t *testing.T) {
	c, err := imagehost.New(imagehost.Config{CloudName: "demo", APIKey: "k", APISecret: "s"}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.UploadImage(context.Background(), nil, "u1"); !errors.Is(err, imagehost.ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}
