package signing

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"media-uploader/internal/mediatypes"
	"media-uploader/internal/metrics"
	"media-uploader/internal/transport"
)

// MaxUploadBytes is the largest payload the signing service will
// authorize. Matches the client-side admission cap so a bypassed client
// still cannot push oversized objects.
const MaxUploadBytes = 10 << 20

// Request describes the file an uploader wants authorization for.
type Request struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// Authorization is a grant to upload one object: a presigned destination
// plus a short-lived credential bound to it.
type Authorization struct {
	UploadURL   string    `json:"uploadUrl"`
	AssetURL    string    `json:"assetUrl"`
	Key         string    `json:"key"`
	Credential  string    `json:"credential"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Destination converts the grant into a transport destination.
func (a *Authorization) Destination() transport.Destination {
	return transport.Destination{
		URL:         a.UploadURL,
		Credential:  a.Credential,
		ContentType: a.ContentType,
	}
}

// ValidationError reports a request the service refuses to sign.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid signing request: " + e.Reason
}

// Presigner produces a signed PUT URL for an object key.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
}

// Service issues upload authorizations: it validates the request,
// presigns a destination and mints a credential bound to the object key.
type Service struct {
	presigner Presigner
	secret    []byte
	ttl       time.Duration
}

// NewService creates a signing service. ttl bounds both the credential
// and the reported grant expiry.
func NewService(presigner Presigner, secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{presigner: presigner, secret: secret, ttl: ttl}
}

// Authorize validates req and returns a grant for it. Refused requests
// return a *ValidationError.
func (s *Service) Authorize(ctx context.Context, req Request) (*Authorization, error) {
	if err := validate(req); err != nil {
		metrics.SigningRequestsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	key := storageKey(req.FileName)

	uploadURL, err := s.presigner.PresignPut(ctx, key, req.ContentType)
	if err != nil {
		metrics.SigningRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("presigning %s: %w", key, err)
	}

	expiresAt := time.Now().Add(s.ttl)
	credential, err := issueCredential(s.secret, key, req.ContentType, req.SizeBytes, s.ttl)
	if err != nil {
		metrics.SigningRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("issuing credential: %w", err)
	}

	metrics.SigningRequestsTotal.WithLabelValues("granted").Inc()
	return &Authorization{
		UploadURL:   uploadURL,
		AssetURL:    assetURL(uploadURL),
		Key:         key,
		Credential:  credential,
		ContentType: req.ContentType,
		ExpiresAt:   expiresAt,
	}, nil
}

func validate(req Request) error {
	if req.FileName == "" {
		return &ValidationError{Reason: "file name is required"}
	}
	if !mediatypes.IsImageMime(req.ContentType) {
		return &ValidationError{Reason: fmt.Sprintf("unsupported content type %q", req.ContentType)}
	}
	if req.SizeBytes <= 0 {
		return &ValidationError{Reason: "size must be positive"}
	}
	if req.SizeBytes > MaxUploadBytes {
		return &ValidationError{Reason: fmt.Sprintf("size %d exceeds limit %d", req.SizeBytes, MaxUploadBytes)}
	}
	return nil
}

// storageKey builds a date-partitioned random object key, keeping the
// original extension so stored objects stay type-identifiable.
func storageKey(fileName string) string {
	d := time.Now()
	ext := mediatypes.Extension(fileName)
	return fmt.Sprintf("uploads/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

// assetURL strips the signing query, yielding the canonical location the
// object will have once uploaded.
func assetURL(uploadURL string) string {
	u, err := url.Parse(uploadURL)
	if err != nil {
		return uploadURL
	}
	u.RawQuery = ""
	return u.String()
}
