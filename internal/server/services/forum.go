package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/manup/agenda/internal/common"
	"github.com/manup/agenda/internal/logging"
	sc "github.com/manup/agenda/internal/server/config"
	"github.com/manup/agenda/internal/server/models"
	"github.com/manup/agenda/internal/server/repositories/posts"
	"github.com/manup/agenda/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	maxPostLength       = 2000
	defaultPageSize     = 10
	maxPageSize         = 50
	attachmentURLExpiry = 15 * time.Minute
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

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

// PostPage is one page of the forum, newest first. NextCursor is empty on
// the last page.
type PostPage struct {
	Posts      []*models.ForumPost
	NextCursor string
}

// ForumService runs the public discussion board and its optional file
// attachments in S3-compatible storage.
type ForumService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	log         logging.Logger
	now         func() time.Time
}

func NewForumService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, log logging.Logger) *ForumService {
	return &ForumService{db: db, repomanager: m, config: cfg, log: log, now: time.Now}
}

// AttachmentsEnabled reports whether a bucket is configured.
func (s *ForumService) AttachmentsEnabled() bool {
	return s.config.S3Bucket != ""
}

// CreatePost publishes body under the author's display name. A non-empty
// attachmentKey must be one issued to the same account.
func (s *ForumService) CreatePost(ctx context.Context, accountID, body, attachmentKey string) (*models.ForumPost, error) {
	body = strings.TrimSpace(body)
	attachmentKey = strings.TrimSpace(attachmentKey)

	if n := utf8.RuneCountInString(body); n == 0 || n > maxPostLength {
		return nil, common.ErrValidation
	}
	if attachmentKey != "" {
		if !s.AttachmentsEnabled() {
			return nil, common.ErrFeatureDisabled
		}
		if !validAttachmentKey(attachmentKey) || !strings.HasPrefix(attachmentKey, attachmentPrefix(accountID)) {
			return nil, common.ErrValidation
		}
	}

	author, err := s.repomanager.Accounts(s.db).FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.log.Error(ctx, "forum: author lookup failed", "account_id", accountID, "error", err)
		return nil, common.ErrorInternal
	}

	post, err := s.repomanager.Posts(s.db).Create(ctx, &models.ForumPost{
		AccountID:     accountID,
		AuthorName:    author.DisplayName,
		Body:          body,
		AttachmentKey: attachmentKey,
	})
	if err != nil {
		s.log.Error(ctx, "forum: create post failed", "account_id", accountID, "error", err)
		return nil, common.ErrorInternal
	}
	return post, nil
}

// ListPosts returns up to limit posts after cursor. limit 0 means the
// default page size; larger values are capped.
func (s *ForumService) ListPosts(ctx context.Context, cursor string, limit int) (*PostPage, error) {
	switch {
	case limit < 0:
		return nil, common.ErrValidation
	case limit == 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	var after *posts.Cursor
	if cursor != "" {
		c, err := DecodeCursor(cursor)
		if err != nil {
			return nil, common.ErrValidation
		}
		after = &c
	}

	// one extra row tells whether another page exists
	items, err := s.repomanager.Posts(s.db).List(ctx, after, limit+1)
	if err != nil {
		s.log.Error(ctx, "forum: list posts failed", "error", err)
		return nil, common.ErrorInternal
	}

	page := &PostPage{Posts: items}
	if len(items) > limit {
		page.Posts = items[:limit]
		last := page.Posts[limit-1]
		page.NextCursor = EncodeCursor(posts.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// DeletePost removes a post written by accountID.
func (s *ForumService) DeletePost(ctx context.Context, accountID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}
	if err := s.repomanager.Posts(s.db).Delete(ctx, accountID, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.log.Error(ctx, "forum: delete post failed", "account_id", accountID, "post_id", id, "error", err)
		return common.ErrorInternal
	}
	return nil
}

// AttachmentUploadURL reserves a fresh storage key for accountID and
// returns it with a presigned PUT URL.
func (s *ForumService) AttachmentUploadURL(ctx context.Context, accountID string) (string, string, error) {
	if !s.AttachmentsEnabled() {
		return "", "", common.ErrFeatureDisabled
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		s.log.Error(ctx, "forum: s3 client failed", "error", err)
		return "", "", common.ErrorInternal
	}

	bucket := s.config.S3Bucket
	key := s.newStorageKey(accountID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(attachmentURLExpiry))
	if err != nil {
		s.log.Error(ctx, "forum: presign put failed", "account_id", accountID, "error", err)
		return "", "", common.ErrorInternal
	}

	return key, req.URL, nil
}

// AttachmentURL returns a presigned GET URL for key. Only keys shaped like
// the ones AttachmentUploadURL issues are signed.
func (s *ForumService) AttachmentURL(ctx context.Context, key string) (string, error) {
	if !s.AttachmentsEnabled() {
		return "", common.ErrFeatureDisabled
	}
	if !validAttachmentKey(key) {
		return "", common.ErrValidation
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		s.log.Error(ctx, "forum: s3 client failed", "error", err)
		return "", common.ErrorInternal
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(attachmentURLExpiry))
	if err != nil {
		s.log.Error(ctx, "forum: presign get failed", "error", err)
		return "", common.ErrorInternal
	}

	return req.URL, nil
}

func (s *ForumService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

func (s *ForumService) newStorageKey(accountID string) string {
	d := s.now().UTC()
	return fmt.Sprintf("%s%04d/%02d/%02d/%v", attachmentPrefix(accountID), d.Year(), d.Month(), d.Day(), uuid.New())
}

// attachmentKeyPattern matches forum/<account>/<yyyy>/<mm>/<dd>/<uuid>.
var attachmentKeyPattern = regexp.MustCompile(
	`^forum/[A-Za-z0-9-]+/[0-9]{4}/[0-9]{2}/[0-9]{2}/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func validAttachmentKey(key string) bool {
	return attachmentKeyPattern.MatchString(key)
}

func attachmentPrefix(accountID string) string {
	return "forum/" + accountID + "/"
}

// EncodeCursor renders c as an opaque URL-safe string.
func EncodeCursor(c posts.Cursor) string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a string produced by EncodeCursor.
func DecodeCursor(s string) (posts.Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return posts.Cursor{}, fmt.Errorf("decode cursor: %w", err)
	}
	nanos, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return posts.Cursor{}, errors.New("decode cursor: missing separator")
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return posts.Cursor{}, fmt.Errorf("decode cursor: %w", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return posts.Cursor{}, fmt.Errorf("decode cursor: %w", err)
	}
	return posts.Cursor{CreatedAt: time.Unix(0, n).UTC(), ID: id}, nil
}
