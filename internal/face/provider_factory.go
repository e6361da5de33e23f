package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/ponto/internal/config"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider/facerec"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider/rekognition"
)

// ProviderType defines supported face primitive backends
type ProviderType string

const (
	// ProviderTypeFaceRec is the face_recognition sidecar (embeddings and detection)
	ProviderTypeFaceRec ProviderType = "facerec"
	// ProviderTypeRekognition uses AWS Rekognition for detection and the sidecar for embeddings
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock is the deterministic in-process provider (dev/test)
	ProviderTypeMock ProviderType = "mock"
)

// NewProviders creates the encoder and detector selected by configuration.
//
// Environment variables:
//   - PROVIDER_TYPE: "facerec", "rekognition" or "mock" (default: "facerec")
//   - FACEREC_URL: sidecar URL (default: "http://localhost:5001")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: via AWS SDK credential chain
func NewProviders(ctx context.Context, cfg *config.Config) (provider.Encoder, provider.Detector, error) {
	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeFaceRec, "":
		p := createFaceRecProvider(cfg)
		return p, p, nil

	case ProviderTypeRekognition:
		detector, err := rekognition.NewProvider(ctx, rekognition.Config{
			Region:      cfg.AWSRegion,
			EyeBoxRatio: rekognition.DefaultConfig().EyeBoxRatio,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create rekognition provider: %w", err)
		}
		return createFaceRecProvider(cfg), detector, nil

	case ProviderTypeMock:
		p := mock.New(cfg.EmbeddingDimension)
		return p, p, nil

	default:
		return nil, nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.ProviderType, ProviderTypeFaceRec, ProviderTypeRekognition, ProviderTypeMock)
	}
}

// createFaceRecProvider creates a sidecar provider instance
func createFaceRecProvider(cfg *config.Config) *facerec.Provider {
	facerecConfig := facerec.DefaultConfig()
	if cfg.FaceRecURL != "" {
		facerecConfig.BaseURL = cfg.FaceRecURL
	}
	return facerec.NewProvider(facerecConfig)
}
