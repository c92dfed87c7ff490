package api

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

var errBodyTooLarge = errors.New("request body too large")

// requestBody caps every request body at maxBytes and inflates gzip-encoded ones.
// For gzip the cap holds for the compressed and the inflated stream alike.
func requestBody(maxBytes int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil {
				return next(c)
			}
			raw := http.MaxBytesReader(c.Response(), req.Body, maxBytes)
			req.Body = raw
			if !gzipEncoded(req.Header) {
				return next(c)
			}

			zr, err := gzip.NewReader(raw)
			if err != nil {
				_ = raw.Close()
				if bodyTooLarge(err) {
					return echo.NewHTTPError(http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())
				}
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}
			req.Body = &inflatedBody{zr: zr, raw: raw, left: maxBytes}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

func gzipEncoded(h http.Header) bool {
	for _, coding := range strings.Split(h.Get(echo.HeaderContentEncoding), ",") {
		if strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			return true
		}
	}
	return false
}

// inflatedBody reads at most left inflated bytes and fails with errBodyTooLarge when
// the payload has more.
type inflatedBody struct {
	zr   *gzip.Reader
	raw  io.ReadCloser
	left int64
}

func (b *inflatedBody) Read(p []byte) (int, error) {
	if b.left <= 0 {
		var extra [1]byte
		n, err := b.zr.Read(extra[:])
		if n > 0 {
			return 0, errBodyTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > b.left {
		p = p[:b.left]
	}
	n, err := b.zr.Read(p)
	b.left -= int64(n)
	return n, err
}

func (b *inflatedBody) Close() error {
	err := b.zr.Close()
	if cerr := b.raw.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func bodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || errors.Is(err, errBodyTooLarge)
}

// decodeJSON reads the whole body into v. It must hold exactly one JSON value and
// fit in maxRequestBodySize bytes.
func decodeJSON(c echo.Context, v any) error {
	body := c.Request().Body
	if body == nil {
		body = http.NoBody
	}
	data, err := io.ReadAll(http.MaxBytesReader(c.Response(), body, maxRequestBodySize))
	if err != nil {
		if bodyTooLarge(err) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable request body").SetInternal(err)
	}
	if !sonic.ConfigStd.Valid(data) {
		return &domain.ValidationError{Field: "body", Reason: "invalid JSON body"}
	}
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "invalid JSON body"}
	}
	return nil
}
