package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/shipit/shipit-backend/internal/config"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// Upload folders
const (
	FolderProofs       = "proofs"
	FolderParcelPhotos = "parcel-photos"
)

// UploadRule restricts which files an upload accepts. An empty rule admits any
// image.
type UploadRule struct {
	Extensions []string
	MIMETypes  []string
}

var (
	ProofPhotoRule  = UploadRule{}
	SenderPhotoRule = UploadRule{
		Extensions: []string{".jpeg", ".jpg", ".png"},
		MIMETypes:  []string{"image/jpeg", "image/png"},
	}
)

// StoredFile describes a saved upload.
type StoredFile struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Storage saves uploads to S3 when configured, otherwise to a local directory
// served under /uploads.
type Storage struct {
	s3Client *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	region   string
	useS3    bool

	uploadDir string
	baseURL   string
	maxBytes  int64
}

// NewStorage initializes either S3 or local storage based on configuration
func NewStorage(cfg *config.Config) (*Storage, error) {
	st := &Storage{
		uploadDir: cfg.UploadDir,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		maxBytes:  cfg.MaxUploadBytes,
	}

	if cfg.S3Enabled() {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWSRegion),
			Credentials: credentials.NewStaticCredentials(
				cfg.AWSAccessKeyID,
				cfg.AWSSecretAccessKey,
				"",
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		if cfg.AWSS3Bucket == "" {
			return nil, fmt.Errorf("S3 bucket name not configured")
		}

		st.s3Client = s3.New(sess)
		st.uploader = s3manager.NewUploader(sess)
		st.bucket = cfg.AWSS3Bucket
		st.region = cfg.AWSRegion
		st.useS3 = true

		zap.L().Info("AWS S3 storage initialized", zap.String("bucket", st.bucket))
		return st, nil
	}

	for _, folder := range []string{FolderProofs, FolderParcelPhotos} {
		if err := os.MkdirAll(filepath.Join(st.uploadDir, folder), 0755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}

	zap.L().Warn("AWS S3 not configured, using local file storage", zap.String("dir", st.uploadDir))
	return st, nil
}

// UploadImage validates and stores an uploaded image under folder.
func (s *Storage) UploadImage(file *multipart.FileHeader, folder string, rule UploadRule) (*StoredFile, error) {
	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(rule.Extensions) > 0 && !lo.Contains(rule.Extensions, ext) {
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupportedFileType, ext)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	// Read one byte past the limit so oversized bodies with a lying header are caught
	limit := s.maxBytes
	if limit <= 0 {
		limit = file.Size
	}
	buffer := bytes.NewBuffer(nil)
	if _, err := io.Copy(buffer, io.LimitReader(src, limit+1)); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if s.maxBytes > 0 && int64(buffer.Len()) > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	mtype := mimetype.Detect(buffer.Bytes())
	contentType := strings.SplitN(mtype.String(), ";", 2)[0]
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
	}
	if len(rule.MIMETypes) > 0 && !lo.Contains(rule.MIMETypes, contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
	}

	if ext == "" {
		ext = mtype.Extension()
	}
	fileName := uuid.NewString() + ext

	stored := &StoredFile{
		Filename:    fileName,
		ContentType: contentType,
		Size:        int64(buffer.Len()),
	}

	if s.useS3 {
		stored.URL, err = s.uploadToS3(buffer.Bytes(), folder, fileName, contentType)
	} else {
		stored.URL, err = s.uploadLocally(buffer.Bytes(), folder, fileName)
	}
	if err != nil {
		return nil, err
	}

	return stored, nil
}

func (s *Storage) uploadToS3(data []byte, folder, fileName, contentType string) (string, error) {
	key := path.Join(folder, fileName)

	_, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

func (s *Storage) uploadLocally(data []byte, folder, fileName string) (string, error) {
	folderPath := filepath.Join(s.uploadDir, folder)
	if err := os.MkdirAll(folderPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create folder directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(folderPath, fileName), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return "/uploads/" + path.Join(folder, fileName), nil
}

// AbsoluteURL turns a stored relative path into a URL clients can fetch.
func (s *Storage) AbsoluteURL(stored string) string {
	if stored == "" || strings.HasPrefix(stored, "http://") || strings.HasPrefix(stored, "https://") {
		return stored
	}
	if !strings.HasPrefix(stored, "/") {
		stored = "/" + stored
	}
	return s.baseURL + stored
}

// FileURL returns the URL of a file saved under folder by name.
func (s *Storage) FileURL(folder, fileName string) string {
	if fileName == "" {
		return ""
	}
	if s.useS3 {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, path.Join(folder, fileName))
	}
	return s.AbsoluteURL("/uploads/" + path.Join(folder, fileName))
}

// DeleteImage removes a stored file identified by its URL.
func (s *Storage) DeleteImage(fileURL string) error {
	if s.useS3 {
		key := extractKeyFromURL(fileURL)
		_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	}

	rel := strings.TrimPrefix(fileURL, s.baseURL)
	rel = strings.TrimPrefix(rel, "/uploads/")
	if rel == "" || strings.Contains(rel, "..") {
		return fmt.Errorf("invalid upload path %q", fileURL)
	}
	err := os.Remove(filepath.Join(s.uploadDir, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// extractKeyFromURL extracts the S3 key from https://bucket.s3.region.amazonaws.com/folder/filename
func extractKeyFromURL(u string) string {
	if i := strings.Index(u, ".amazonaws.com/"); i >= 0 {
		return u[i+len(".amazonaws.com/"):]
	}
	return strings.TrimPrefix(u, "/")
}

// IsUsingS3 returns true if S3 storage is being used
func (s *Storage) IsUsingS3() bool {
	return s.useS3
}
