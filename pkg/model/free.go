package model

// FreeModels releases the model graph early. It does nothing and returns false
// while ChangesPending is set. Otherwise every owned list is emptied, every
// back-reference is set to -1 and the vertex and index data are dropped.
func (p *Package) FreeModels() bool {
	if p.ChangesPending {
		return false
	}

	for i := range p.Models {
		p.Models[i].VertexBuffer = -1
		p.Models[i].Lods = nil
	}
	for i := range p.Lods {
		p.Lods[i].Model = -1
		p.Lods[i].Instances = nil
	}
	for i := range p.LodInstances {
		p.LodInstances[i].Lod = -1
		p.LodInstances[i].Model = -1
		p.LodInstances[i].SubModels = nil
	}
	for i := range p.SubModels {
		p.SubModels[i].LodInstance = -1
		p.SubModels[i].Model = -1
		p.SubModels[i].ModelData = nil
	}
	for i := range p.VertexBuffers {
		p.VertexBuffers[i].Data = nil
	}

	p.Models = p.Models[:0]
	p.Lods = p.Lods[:0]
	p.LodInstances = p.LodInstances[:0]
	p.SubModels = p.SubModels[:0]
	p.VertexBuffers = p.VertexBuffers[:0]
	if p.IndexBuffer != nil {
		p.IndexBuffer.Indices = nil
	}
	return true
}

// FreeMaterials releases the material graph early, under the same guard as FreeModels.
func (p *Package) FreeMaterials() bool {
	if p.ChangesPending {
		return false
	}

	for i := range p.Materials {
		p.Materials[i].Substances = nil
	}
	for i := range p.Substances {
		p.Substances[i].Material = -1
		p.Substances[i].Textures = nil
	}
	for i := range p.Textures {
		p.Textures[i].Substance = -1
		p.Textures[i].Data = nil
		p.Textures[i].CLUTs = nil
	}

	p.Materials = p.Materials[:0]
	p.Substances = p.Substances[:0]
	p.Textures = p.Textures[:0]
	p.TextureData = nil
	return true
}
