// Package services implements the server's application services: save
// transfers via presigned object-storage URLs and device registration.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/edmarkov/savesync/internal/server/config"
	"github.com/edmarkov/savesync/internal/server/models"
	"github.com/edmarkov/savesync/internal/server/repositories/saves"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// SaveService hands out upload/download grants and records committed save
// versions.
type SaveService struct {
	repo   saves.Repository
	config *config.Config
}

// NewSaveService constructs the service over the saves repository.
func NewSaveService(repo saves.Repository, config *config.Config) *SaveService {
	return &SaveService{repo: repo, config: config}
}

// UploadGrant is a fresh save id plus a presigned PUT URL for its payload.
type UploadGrant struct {
	SaveID     string
	StorageKey string
	URL        string
}

// DownloadGrant pairs the presigned GET URL with the authoritative metadata.
type DownloadGrant struct {
	URL  string
	Save models.Save
}

// CommitRequest finalizes an upload after the payload landed in storage.
type CommitRequest struct {
	SaveID     string
	StorageKey string
	Hash       string
	Size       int64
	MTime      time.Time
	DeviceID   string
}

func randomStorageKey(gameID int64) string {
	d := time.Now()
	return fmt.Sprintf("games/%d/%d/%d/%d/%v", gameID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *SaveService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// List returns every stored save for a game.
func (s *SaveService) List(ctx context.Context, gameID int64) ([]models.Save, error) {
	return s.repo.ListByGame(ctx, gameID)
}

// BeginUpload mints a save id and a presigned PUT URL. Nothing is recorded
// until the device commits.
func (s *SaveService) BeginUpload(ctx context.Context, gameID int64, filename string) (*UploadGrant, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := randomStorageKey(gameID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignValidityDuration))
	if err != nil {
		return nil, err
	}

	return &UploadGrant{
		SaveID:     uuid.NewString(),
		StorageKey: key,
		URL:        req.URL,
	}, nil
}

// CommitUpload records the uploaded payload's metadata as the current save
// version and returns it.
func (s *SaveService) CommitUpload(ctx context.Context, gameID int64, filename string, req CommitRequest) (*models.Save, error) {
	save := &models.Save{
		ID:         req.SaveID,
		GameID:     gameID,
		Filename:   filename,
		Hash:       req.Hash,
		Size:       req.Size,
		StorageKey: req.StorageKey,
		UpdatedAt:  req.MTime,
		DeviceID:   req.DeviceID,
	}
	if err := s.repo.Upsert(ctx, save); err != nil {
		return nil, err
	}
	return save, nil
}

// BeginDownload returns a presigned GET URL for the current save version.
func (s *SaveService) BeginDownload(ctx context.Context, gameID int64, filename string) (*DownloadGrant, error) {
	save, err := s.repo.Get(ctx, gameID, filename)
	if err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &save.StorageKey,
	}, s3.WithPresignExpires(s.config.PresignValidityDuration))
	if err != nil {
		return nil, err
	}

	return &DownloadGrant{URL: req.URL, Save: *save}, nil
}
