package api

import (
	"github.com/samcharles93/dscript/internal/report"
	"github.com/samcharles93/dscript/pkg/vif"
)

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

type Container struct {
	ID         string              `json:"id"`
	Object     string              `json:"object"`
	Name       string              `json:"name,omitempty"`
	Size       int                 `json:"size"`
	Compressed bool                `json:"compressed"`
	Version    uint32              `json:"version"`
	CreatedAt  int64               `json:"created_at"`
	Buffers    int                 `json:"buffers"`
	Tree       []report.BufferInfo `json:"tree,omitempty"`
}

type ContainerList struct {
	Object string      `json:"object"`
	Data   []Container `json:"data"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type PackageEntry struct {
	Index   int    `json:"index"`
	Path    string `json:"path"`
	Offset  uint64 `json:"offset"`
	Size    uint32 `json:"size"`
	UID     uint32 `json:"uid,omitempty"`
	Models  int    `json:"models"`
	Error   string `json:"error,omitempty"`
	Decoded bool   `json:"decoded"`
}

type PackageList struct {
	Object   string         `json:"object"`
	Platform string         `json:"platform"`
	Version  int            `json:"version"`
	Data     []PackageEntry `json:"data"`
}

type PackageResponse struct {
	Object string `json:"object"`
	Index  int    `json:"index"`
	report.Package
}

type VIFResponse struct {
	Object       string            `json:"object"`
	SubModel     int               `json:"sub_model"`
	Size         int               `json:"size"`
	Instructions []vif.Instruction `json:"instructions"`
	Error        string            `json:"error,omitempty"`
}

type MaterialResponse struct {
	Object string           `json:"object"`
	Handle string           `json:"handle"`
	Result string           `json:"result"`
	Data   *report.Material `json:"material,omitempty"`
}
