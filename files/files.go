package files

import (
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/spf13/viper"
)

// Image is a stored image: the public URL plus the opaque store
// reference used for deletion.
type Image struct {
	URL string
	ID  string
}

// Storage is the hosted image store. Pet profile images are uploaded
// to it and deleted from it by reference id.
type Storage interface {
	Upload(r io.Reader, filename string) (Image, error)
	Delete(id string) error
}

type S3 struct {
	uploader *s3manager.Uploader
	client   *s3.S3
	bucket   string
}

func NewS3() (*S3, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(viper.GetString("aws_region")),
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create aws session")
	}

	return &S3{
		uploader: s3manager.NewUploader(sess),
		client:   s3.New(sess),
		bucket:   viper.GetString("s3_bucket"),
	}, nil
}

func (s *S3) Upload(r io.Reader, filename string) (Image, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Image{}, errors.Wrap(err, "could not generate image id")
	}
	key := fmt.Sprintf("pets/%s%s", id, path.Ext(filename))

	result, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
		ACL:    aws.String("public-read"),
	})
	if err != nil {
		return Image{}, errors.Wrap(err, "could not upload image")
	}

	return Image{
		URL: result.Location,
		ID:  key,
	}, nil
}

func (s *S3) Delete(id string) error {
	_, err := s.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	return errors.Wrap(err, "could not delete image")
}
