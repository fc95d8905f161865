// Package s3 работает с бакетом Amazon S3 или совместимым хранилищем
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// ErrNoBucket возвращается, если бакет не настроен
var ErrNoBucket = errors.New("не указан бакет S3")

// Config содержит настройки для S3
type Config struct {
	Region     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	BucketName string
}

// Client загружает и удаляет объекты бакета
type Client struct {
	uploader s3manageriface.UploaderAPI
	api      s3iface.S3API
	config   Config
}

// NewClient создает клиента по настройкам
func NewClient(config Config) (*Client, error) {
	if config.BucketName == "" {
		return nil, ErrNoBucket
	}

	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
	}

	// Если указан endpoint, используем адресацию по пути
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AWS сессии: %w", err)
	}

	return NewClientWithAPI(config, s3manager.NewUploader(sess), s3.New(sess)), nil
}

// NewClientWithAPI создает клиента поверх готовых реализаций API
func NewClientWithAPI(config Config, uploader s3manageriface.UploaderAPI, api s3iface.S3API) *Client {
	return &Client{
		uploader: uploader,
		api:      api,
		config:   config,
	}
}

// UploadFile загружает объект и возвращает его адрес
func (c *Client) UploadFile(ctx context.Context, reader io.Reader, key, contentType string) (string, error) {
	input := &s3manager.UploadInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
		Body:   reader,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.uploader.UploadWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("ошибка загрузки %s: %w", key, err)
	}
	return c.ObjectURL(key), nil
}

// DeleteFile удаляет объект
func (c *Client) DeleteFile(ctx context.Context, key string) error {
	_, err := c.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления %s из S3: %w", key, err)
	}
	return nil
}

// ListKeys возвращает ключи объектов с префиксом
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := c.api.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.config.BucketName),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка объектов: %w", err)
	}
	return keys, nil
}

// ObjectURL возвращает адрес объекта. Для своего endpoint используется
// адресация по пути.
func (c *Client) ObjectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if c.config.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(c.config.Endpoint, "/"), c.config.BucketName, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.config.BucketName, c.config.Region, escaped)
}

// BaseURL возвращает адрес, относительно которого доступны ассеты
func (c *Client) BaseURL() string {
	return strings.TrimSuffix(c.ObjectURL(""), "/")
}
