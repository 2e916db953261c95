package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/dscript/internal/logger"
	"github.com/samcharles93/dscript/internal/report"
	"github.com/samcharles93/dscript/internal/version"
	"github.com/samcharles93/dscript/pkg/chunk"
	"github.com/samcharles93/dscript/pkg/model"
	"github.com/samcharles93/dscript/pkg/platform"
	"github.com/samcharles93/dscript/pkg/vif"
)

const (
	// DefaultMaxUploadBytes caps container uploads when Options leaves it unset.
	DefaultMaxUploadBytes = 256 << 20
	// DefaultMaxContainerBytes caps the decompressed size of a compressed upload.
	DefaultMaxContainerBytes = 1 << 30
)

// Options configures a Server.
type Options struct {
	// Platform and Version are used when a request omits them.
	Platform       platform.Type
	Version        int
	MaxUploadBytes int64
	// MaxContainerBytes bounds a zstd upload after decompression.
	MaxContainerBytes int64
	Logger            logger.Logger
}

type Server struct {
	store *ContainerStore
	opts  Options
	log   logger.Logger
	clock func() time.Time
}

func NewServer(store *ContainerStore, opts Options) *Server {
	if store == nil {
		store = NewContainerStore()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.MaxContainerBytes <= 0 {
		opts.MaxContainerBytes = DefaultMaxContainerBytes
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		store: store,
		opts:  opts,
		log:   log,
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/version", s.handleVersion)

	// Containers
	e.POST("/v1/containers", s.handleCreateContainer)
	e.GET("/v1/containers", s.handleListContainers)
	e.GET("/v1/containers/:id", s.handleGetContainer)
	e.DELETE("/v1/containers/:id", s.handleDeleteContainer)

	// Model packages
	e.GET("/v1/containers/:id/packages", s.handleListPackages)
	e.GET("/v1/containers/:id/packages/:index", s.handleGetPackage)
	e.GET("/v1/containers/:id/packages/:index/submodels/:sub/vif", s.handleSubModelVIF)
	e.GET("/v1/containers/:id/packages/:index/materials/:handle", s.handleFindMaterial)
}

func (s *Server) handleVersion(c *echo.Context) error {
	return c.JSON(http.StatusOK, version.Resolve())
}

func (s *Server) handleCreateContainer(c *echo.Context) error {
	body := http.MaxBytesReader(c.Response(), c.Request().Body, s.opts.MaxUploadBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error",
				fmt.Sprintf("container exceeds %d bytes", tooLarge.Limit), "", "")
		}
		return writeBadRequest(c, err.Error())
	}
	if len(data) == 0 {
		return writeBadRequest(c, "request body is empty")
	}

	compressed := chunk.IsCompressed(data)
	f, err := chunk.ParseLimit(data, s.opts.MaxContainerBytes)
	if err != nil {
		return writeDecodeError(c, err)
	}
	rec := s.store.Create(c.QueryParam("name"), len(data), compressed, f, s.clock())
	s.log.Info("container stored", "id", rec.ID, "name", rec.Name, "bytes", rec.Size, "buffers", f.Count())
	return c.JSON(http.StatusOK, containerView(rec, true))
}

func (s *Server) handleListContainers(c *echo.Context) error {
	recs := s.store.List()
	out := ContainerList{Object: "list", Data: make([]Container, 0, len(recs))}
	for _, rec := range recs {
		out.Data = append(out.Data, containerView(rec, false))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetContainer(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "container not found")
	}
	return c.JSON(http.StatusOK, containerView(rec, true))
}

func (s *Server) handleDeleteContainer(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "container not found")
	}
	return c.JSON(http.StatusOK, DeleteResponse{
		ID:      id,
		Object:  "container",
		Deleted: true,
	})
}

func (s *Server) handleListPackages(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "container not found")
	}
	d, err := s.decoderFor(c)
	if err != nil {
		return writeDecodeError(c, err)
	}

	bufs := rec.buffers(d)
	out := PackageList{
		Object:   "list",
		Platform: d.Platform().String(),
		Version:  d.Version(),
		Data:     make([]PackageEntry, 0, len(bufs)),
	}
	for i, b := range bufs {
		entry := PackageEntry{Index: i, Path: b.Path(), Offset: b.Offset, Size: b.Size}
		p, _, err := rec.Package(d, i)
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Decoded = true
			entry.UID = p.UID
			entry.Models = len(p.Models)
		}
		out.Data = append(out.Data, entry)
	}
	return c.JSON(http.StatusOK, out)
}

// loadPackage resolves the container, decoder and package index of a request.
// On failure the error response has already been written and ok is false.
func (s *Server) loadPackage(c *echo.Context) (p *model.Package, index int, ok bool, err error) {
	rec, found := s.store.Get(c.Param("id"))
	if !found {
		return nil, 0, false, writeNotFound(c, "container not found")
	}
	d, err := s.decoderFor(c)
	if err != nil {
		return nil, 0, false, writeDecodeError(c, err)
	}
	index, err = paramIndex(c, "index")
	if err != nil {
		return nil, 0, false, writeDecodeError(c, err)
	}
	p, found, err = rec.Package(d, index)
	if !found {
		return nil, 0, false, writeNotFound(c, fmt.Sprintf("package %d not found for %s v%d", index, d.Platform(), d.Version()))
	}
	if err != nil {
		return nil, 0, false, writeDecodeError(c, err)
	}
	return p, index, true, nil
}

func (s *Server) handleGetPackage(c *echo.Context) error {
	p, index, ok, err := s.loadPackage(c)
	if !ok {
		return err
	}
	opts := report.Options{
		VIF:        queryBool(c, "vif"),
		VIFOptions: []vif.Option{vif.WithLogger(s.log)},
	}
	return c.JSON(http.StatusOK, PackageResponse{
		Object:  "model_package",
		Index:   index,
		Package: report.Summarize(p, opts),
	})
}

func (s *Server) handleSubModelVIF(c *echo.Context) error {
	p, _, ok, err := s.loadPackage(c)
	if !ok {
		return err
	}
	sub, err := paramIndex(c, "sub")
	if err != nil {
		return writeDecodeError(c, err)
	}
	if sub >= len(p.SubModels) {
		return writeNotFound(c, fmt.Sprintf("sub model %d not found", sub))
	}
	sm := &p.SubModels[sub]
	if sm.ModelData == nil {
		return writeError(c, http.StatusUnprocessableEntity, "invalid_request_error",
			fmt.Sprintf("sub model %d carries no VIF data", sub), "sub", "")
	}

	insts, derr := vif.Decode(sm.ModelData, vif.WithLogger(s.log))
	out := VIFResponse{
		Object:       "vif_program",
		SubModel:     sub,
		Size:         len(sm.ModelData),
		Instructions: insts,
	}
	if out.Instructions == nil {
		out.Instructions = []vif.Instruction{}
	}
	if derr != nil {
		out.Error = derr.Error()
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleFindMaterial(c *echo.Context) error {
	p, _, ok, err := s.loadPackage(c)
	if !ok {
		return err
	}
	raw, err := paramHex(c, "handle", 32)
	if err != nil {
		return writeDecodeError(c, err)
	}
	h := model.HandleFromUint32(uint32(raw))
	m, res := p.FindMaterial(h)
	out := MaterialResponse{
		Object: "material_lookup",
		Handle: h.String(),
		Result: res.String(),
	}
	if m != nil {
		v := report.SummarizeMaterial(m)
		out.Data = &v
	}
	return c.JSON(http.StatusOK, out)
}
