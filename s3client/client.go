package s3client

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"varspot.io/vsp/logger"
)

type EnvironmentConfig struct {
	BucketName  string `envconfig:"VSP_COMN_STORAGE_CONTAINER_NAME" required:"true"`
	VspEnv      string `envconfig:"VSP_ENV" required:"true"`
	Region      string `envconfig:"VSP_COMN_AWS_REGION_NAME" required:"true"`
	AwsEndpoint string `envconfig:"VSP_COMN_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"VSP_COMN_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"VSP_COMN_AWS_ACCESS_KEY" default:""`
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

// Client holds document text and result objects in a single bucket. The AWS
// session is shared between goroutines; when an operation fails the session
// is rebuilt once and the operation retried. A generation counter keeps
// concurrent failures from each re-dialing AWS in turn.
type Client struct {
	env EnvironmentConfig

	mu         sync.Mutex
	sess       *session.Session
	generation uint64
}

func New() (*Client, error) {
	var env EnvironmentConfig
	if err := envconfig.Process("", &env); err != nil {
		clientLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	client := Client{env: env}
	sess, err := openSession(env)
	if err != nil {
		return nil, err
	}
	client.sess = sess
	return &client, nil
}

// Upload stores body under key in the bucket.
func (client *Client) Upload(key string, body []byte, contentType string) error {
	sess, generation := client.session()
	err := client.upload(sess, key, body, contentType)
	if err == nil {
		return nil
	}
	sess, err = client.refresh(generation, err)
	if err != nil {
		return err
	}
	return client.upload(sess, key, body, contentType)
}

// Download fetches the object stored under key.
func (client *Client) Download(key string) ([]byte, error) {
	sess, generation := client.session()
	data, err := client.download(sess, key)
	if err == nil {
		return data, nil
	}
	sess, err = client.refresh(generation, err)
	if err != nil {
		return nil, err
	}
	return client.download(sess, key)
}

func (client *Client) upload(sess *session.Session, key string, body []byte, contentType string) error {
	opLogger := client.objectLogger(&clientLogger, key)
	uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: client.sdkLog(key)}))
	opLogger.Debug().Int("size", len(body)).Msg("Uploading the object")
	_, err := uploader.Upload(&s3manager.UploadInput{
		Bucket:      &client.env.BucketName,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	})
	if err != nil {
		opLogger.Err(err).Msg("Failed to upload object")
	}
	return err
}

func (client *Client) download(sess *session.Session, key string) ([]byte, error) {
	opLogger := client.objectLogger(&clientLogger, key)
	downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: client.sdkLog(key)}))
	buf := aws.NewWriteAtBuffer([]byte{})
	opLogger.Debug().Msg("Downloading object")
	size, err := downloader.Download(buf, &s3.GetObjectInput{
		Bucket: &client.env.BucketName,
		Key:    &key,
	})
	if err != nil {
		opLogger.Err(err).Msg("Failed to download object")
		return nil, err
	}
	opLogger.Debug().Msgf("Downloaded %v bytes", size)
	return buf.Bytes(), nil
}

func (client *Client) session() (*session.Session, uint64) {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.sess, client.generation
}

// refresh rebuilds the session after cause unless another goroutine already
// replaced the generation the caller saw.
func (client *Client) refresh(seenGeneration uint64, cause error) (*session.Session, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.generation != seenGeneration {
		if client.sess == nil {
			return nil, errors.New("no usable S3 session")
		}
		return client.sess, nil
	}
	clientLogger.Err(cause).Msg("Caught error while using S3 session, trying to refresh it")
	sess, err := openSession(client.env)
	client.generation++
	if err != nil {
		client.sess = nil
		return nil, err
	}
	clientLogger.Info().Msg("Successfully refreshed session")
	client.sess = sess
	return sess, nil
}

// openSession prefers the EC2 instance role and falls back to static
// credentials from the environment. Either way the session is verified with
// an STS identity call before it is handed out.
func openSession(env EnvironmentConfig) (*session.Session, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:     aws.String(env.Region),
		MaxRetries: aws.Int(4),
		LogLevel:   aws.LogLevel(aws.LogDebug),
	})
	if err == nil {
		if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err == nil {
			clientLogger.Info().Msg("S3 session initialized using EC2 instance credentials")
			return sess, nil
		}
	}
	clientLogger.Info().Msg("Could not initialize S3 session using EC2, trying env credentials")

	creds := credentials.NewStaticCredentials(env.AccessKeyID, env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		clientLogger.Err(err).Msg("No usable credentials in environment")
		return nil, err
	}
	cfg := aws.NewConfig().
		WithRegion(env.Region).
		WithMaxRetries(4).
		WithCredentials(creds).
		WithLogLevel(aws.LogDebug)
	if env.VspEnv == "dev" && env.AwsEndpoint != "" {
		cfg = cfg.WithEndpoint(env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	sess, err = session.NewSession(cfg)
	if err != nil {
		clientLogger.Err(err).Msg("Could not initialize S3 session")
		return nil, err
	}
	if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
		clientLogger.Err(err).Msg("Could not verify S3 session with env credentials")
		return nil, err
	}
	clientLogger.Info().Msg("S3 session initialized using env credentials")
	return sess, nil
}

func (client *Client) objectLogger(base *zerolog.Logger, key string) zerolog.Logger {
	return base.With().
		Str("key", key).
		Str("bucket", client.env.BucketName).Logger()
}

func (client *Client) sdkLog(key string) aws.Logger {
	sdkLog := client.objectLogger(&sdkLogger, key)
	return &s3LogAdapter{sdkLog}
}

type s3LogAdapter struct {
	vspLogger zerolog.Logger
}

func (adapter *s3LogAdapter) Log(v ...interface{}) {
	adapter.vspLogger.Debug().Msg(fmt.Sprint(v...))
}
