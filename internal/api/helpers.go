package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/dscript/internal/report"
	"github.com/samcharles93/dscript/pkg/model"
	"github.com/samcharles93/dscript/pkg/platform"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeDecodeError(c *echo.Context, err error) error {
	status, errType := classify(err)
	return writeError(c, status, errType, err.Error(), "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// decoderFor builds the decoder selected by the platform and version query
// parameters, falling back to the server defaults.
func (s *Server) decoderFor(c *echo.Context) (model.Decoder, error) {
	p := s.opts.Platform
	if q := c.QueryParam("platform"); q != "" {
		parsed, err := platform.ParseType(q)
		if err != nil {
			return nil, err
		}
		p = parsed
	}
	if p == platform.Any {
		return nil, newInvalidRequest("platform must name a single platform")
	}
	version := s.opts.Version
	if q := c.QueryParam("version"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 0 {
			return nil, newInvalidRequest(fmt.Sprintf("version: invalid value %q", q))
		}
		version = v
	}
	return model.NewDecoder(p, version, model.WithLogger(s.log)), nil
}

func paramIndex(c *echo.Context, name string) (int, error) {
	raw := c.Param(name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, newInvalidRequest(fmt.Sprintf("%s: invalid index %q", name, raw))
	}
	return n, nil
}

func paramHex(c *echo.Context, name string, bits int) (uint64, error) {
	raw := strings.TrimPrefix(strings.ToLower(c.Param(name)), "0x")
	n, err := strconv.ParseUint(raw, 16, bits)
	if err != nil {
		return 0, newInvalidRequest(fmt.Sprintf("%s: invalid hex value %q", name, c.Param(name)))
	}
	return n, nil
}

func queryBool(c *echo.Context, name string) bool {
	q := c.QueryParam(name)
	return q == "1" || strings.EqualFold(q, "true")
}

func containerView(rec *containerRecord, tree bool) Container {
	out := Container{
		ID:         rec.ID,
		Object:     "container",
		Name:       rec.Name,
		Size:       rec.Size,
		Compressed: rec.Compressed,
		Version:    rec.File.Header.Version,
		CreatedAt:  rec.CreatedAt.Unix(),
		Buffers:    rec.File.Count(),
	}
	if tree {
		out.Tree = report.Tree(rec.File)
	}
	return out
}
