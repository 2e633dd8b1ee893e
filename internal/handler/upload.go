package handler

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
)

// openUpload returns the multipart "file" field of the request.
func openUpload(c *gin.Context) (*multipart.FileHeader, io.ReadCloser, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return fileHeader, src, nil
}
