package model

import (
	"testing"

	"github.com/samcharles93/dscript/pkg/platform"
)

func loadPS2(t *testing.T) *Package {
	t.Helper()
	p, err := NewDecoder(platform.PS2, 0).Load(bufferFor(t, platform.MagicPS2, ps2Package().Bytes()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return p
}

func TestFindMaterial(t *testing.T) {
	t.Parallel()

	p := loadPS2(t)
	cases := []struct {
		name   string
		handle MaterialHandle
		want   LookupResult
	}{
		{"owned", HandleFromUint32(0x12340000), Found},
		{"wildcard", MaterialHandle{UID: WildcardUID, Index: 0}, Found},
		{"missing", MaterialHandle{UID: 0x1234, Index: 5}, Missing},
		{"wildcard missing", MaterialHandle{UID: WildcardUID, Index: 1}, Missing},
		{"other package", MaterialHandle{UID: 0x9999, Index: 0}, NotOwned},
	}
	for _, tc := range cases {
		m, got := p.FindMaterial(tc.handle)
		if got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
		if (m != nil) != (got == Found) {
			t.Fatalf("%s: material %v inconsistent with %s", tc.name, m, got)
		}
	}
	if m, _ := p.FindMaterial(MaterialHandle{UID: WildcardUID}); m != &p.Materials[0] {
		t.Fatalf("found material should point into the package table")
	}
}

func TestFindMaterialWithoutMaterials(t *testing.T) {
	t.Parallel()

	p := &Package{UID: 1}
	if _, got := p.FindMaterial(MaterialHandle{UID: 1}); got != Missing {
		t.Fatalf("got %s want missing", got)
	}
}

func TestHandleString(t *testing.T) {
	t.Parallel()

	if got := HandleFromUint32(0xFFFD0003).String(); got != "FFFD:3" {
		t.Fatalf("got %q", got)
	}
}

func TestFreeGuardedByChangesPending(t *testing.T) {
	t.Parallel()

	p := loadPS2(t)
	p.ChangesPending = true
	if p.FreeModels() || p.FreeMaterials() {
		t.Fatalf("free should be refused while changes are pending")
	}
	if len(p.Models) != 1 || len(p.Materials) != 1 || p.SubModels[1].ModelData == nil {
		t.Fatalf("graph should be untouched")
	}
}

func TestFreeModels(t *testing.T) {
	t.Parallel()

	p := loadPS2(t)
	models, lods, insts, subs := p.Models, p.Lods, p.LodInstances, p.SubModels
	vbs := p.VertexBuffers

	if !p.FreeModels() {
		t.Fatalf("FreeModels returned false")
	}
	if len(p.Models) != 0 || len(p.SubModels) != 0 || len(p.VertexBuffers) != 0 {
		t.Fatalf("tables should be empty")
	}
	if p.HasModels() {
		t.Fatalf("HasModels after free")
	}
	if p.IndexBuffer.Indices != nil {
		t.Fatalf("index data should be dropped")
	}
	if models[0].VertexBuffer != -1 || models[0].Lods != nil {
		t.Fatalf("model refs not cleared: %+v", models[0])
	}
	if lods[0].Model != -1 || lods[0].Instances != nil {
		t.Fatalf("lod refs not cleared: %+v", lods[0])
	}
	if insts[0].Lod != -1 || insts[0].Model != -1 || insts[0].SubModels != nil {
		t.Fatalf("lod instance refs not cleared: %+v", insts[0])
	}
	for i, sm := range subs {
		if sm.LodInstance != -1 || sm.Model != -1 || sm.ModelData != nil {
			t.Fatalf("sub model %d refs not cleared: %+v", i, sm)
		}
	}
	if vbs[0].Data != nil {
		t.Fatalf("vertex data should be dropped")
	}
	if !p.HasMaterials() {
		t.Fatalf("FreeModels must not touch materials")
	}
}

func TestFreeMaterials(t *testing.T) {
	t.Parallel()

	p := loadPS2(t)
	mats, subs, texs := p.Materials, p.Substances, p.Textures

	if !p.FreeMaterials() {
		t.Fatalf("FreeMaterials returned false")
	}
	if p.HasMaterials() || p.HasTextures() || p.TextureData != nil {
		t.Fatalf("material tables should be empty")
	}
	if mats[0].Substances != nil {
		t.Fatalf("material substances not cleared")
	}
	if subs[0].Material != -1 || subs[0].Textures != nil {
		t.Fatalf("substance refs not cleared: %+v", subs[0])
	}
	if texs[0].Substance != -1 || texs[0].Data != nil || texs[0].CLUTs != nil {
		t.Fatalf("texture refs not cleared: %+v", texs[0])
	}
	if _, got := p.FindMaterial(MaterialHandle{UID: WildcardUID}); got != Missing {
		t.Fatalf("lookup after free: got %s want missing", got)
	}
	if !p.HasModels() {
		t.Fatalf("FreeMaterials must not touch models")
	}
}
