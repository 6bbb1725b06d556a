package d3dmesh

import (
	"github.com/mogaika/telltale_converter/hashdb"
	"github.com/mogaika/telltale_converter/utils"
)

// TextureKind classifies what a material uses a texture for. Only a
// few kinds take part in conversion, the rest are carried for logging.
type TextureKind int

const (
	TEXTURE_UNKNOWN TextureKind = iota
	TEXTURE_ANISOTROPY
	TEXTURE_ANISOTROPY_MASK
	TEXTURE_ANISOTROPY_TANGENT
	TEXTURE_BUMP
	TEXTURE_COLOR_MASK
	TEXTURE_DAMAGE_MASK
	TEXTURE_DECAL_DIFFUSE
	TEXTURE_DECAL_MASK
	TEXTURE_DECAL_NORMAL
	TEXTURE_DETAIL
	TEXTURE_DETAIL_GLOSS
	TEXTURE_DETAIL_MASK
	TEXTURE_DETAIL_NORMAL
	TEXTURE_PACKED_DETAIL
	TEXTURE_DIFFUSE
	TEXTURE_DIFFUSE_LOD
	TEXTURE_EMISSION
	TEXTURE_ENVIRONMENT
	TEXTURE_FLOW
	TEXTURE_GLOSS
	TEXTURE_GRADIENT
	TEXTURE_GRIME
	TEXTURE_HEIGHT
	TEXTURE_INK
	TEXTURE_MICRODETAIL_DIFFUSE
	TEXTURE_MICRODETAIL_NORMAL
	TEXTURE_NORMAL
	TEXTURE_NORMAL_ALTERNATE
	TEXTURE_OCCLUSION
	TEXTURE_RAIN_FALL
	TEXTURE_RAIN_WET
	TEXTURE_SPECULAR
	TEXTURE_TANGENT
	TEXTURE_THICKNESS
	TEXTURE_TRANSITION_NORMAL
	TEXTURE_VISIBILITY_MASK
	TEXTURE_WRINKLE_MASK
	TEXTURE_WRINKLE_NORMAL
)

var textureKindNames = map[TextureKind]string{
	TEXTURE_ANISOTROPY:          "Anisotropy",
	TEXTURE_ANISOTROPY_MASK:     "AnisotropyMask",
	TEXTURE_ANISOTROPY_TANGENT:  "AnisotropyTangent",
	TEXTURE_BUMP:                "Bump",
	TEXTURE_COLOR_MASK:          "ColorMask",
	TEXTURE_DAMAGE_MASK:         "DamageMask",
	TEXTURE_DECAL_DIFFUSE:       "DecalDiffuse",
	TEXTURE_DECAL_MASK:          "DecalMask",
	TEXTURE_DECAL_NORMAL:        "DecalNormal",
	TEXTURE_DETAIL:              "Detail",
	TEXTURE_DETAIL_GLOSS:        "DetailGloss",
	TEXTURE_DETAIL_MASK:         "DetailMask",
	TEXTURE_DETAIL_NORMAL:       "DetailNormal",
	TEXTURE_PACKED_DETAIL:       "PackedDetail",
	TEXTURE_DIFFUSE:             "Diffuse",
	TEXTURE_DIFFUSE_LOD:         "DiffuseLOD",
	TEXTURE_EMISSION:            "Emission",
	TEXTURE_ENVIRONMENT:         "Environment",
	TEXTURE_FLOW:                "Flow",
	TEXTURE_GLOSS:               "Gloss",
	TEXTURE_GRADIENT:            "Gradient",
	TEXTURE_GRIME:               "Grime",
	TEXTURE_HEIGHT:              "Height",
	TEXTURE_INK:                 "Ink",
	TEXTURE_MICRODETAIL_DIFFUSE: "MicrodetailDiffuse",
	TEXTURE_MICRODETAIL_NORMAL:  "MicrodetailNormal",
	TEXTURE_NORMAL:              "Normal",
	TEXTURE_NORMAL_ALTERNATE:    "NormalAlternate",
	TEXTURE_OCCLUSION:           "Occlusion",
	TEXTURE_RAIN_FALL:           "RainFall",
	TEXTURE_RAIN_WET:            "RainWet",
	TEXTURE_SPECULAR:            "Specular",
	TEXTURE_TANGENT:             "Tangent",
	TEXTURE_THICKNESS:           "Thickness",
	TEXTURE_TRANSITION_NORMAL:   "TransitionNormal",
	TEXTURE_VISIBILITY_MASK:     "VisibilityMask",
	TEXTURE_WRINKLE_MASK:        "WrinkleMask",
	TEXTURE_WRINKLE_NORMAL:      "WrinkleNormal",
}

func (k TextureKind) String() string {
	if name, ok := textureKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// TextureSlot distinguishes the primary binding of a kind from its
// alternates. Conversion only follows Map and MapA bindings.
type TextureSlot int

const (
	SLOT_UNKNOWN TextureSlot = iota
	SLOT_MAP
	SLOT_MAP_A
	SLOT_MAP_B
	SLOT_MAP_C
)

func (s TextureSlot) String() string {
	switch s {
	case SLOT_MAP:
		return "Map"
	case SLOT_MAP_A:
		return "MapA"
	case SLOT_MAP_B:
		return "MapB"
	case SLOT_MAP_C:
		return "MapC"
	}
	return "Unknown"
}

type textureUsage struct {
	Kind TextureKind
	Slot TextureSlot
}

// Usage checksums observed across the game files. A miss keeps the
// reference with an unknown usage instead of rejecting the material.
var textureUsageByHash = map[uint64]textureUsage{
	0x9836970882a34f02: {TEXTURE_ANISOTROPY, SLOT_MAP},
	0x714d23445936b35d: {TEXTURE_ANISOTROPY_MASK, SLOT_MAP},
	0x7501e041ac72a988: {TEXTURE_ANISOTROPY_TANGENT, SLOT_MAP},
	0xb8b04ddf1796f446: {TEXTURE_BUMP, SLOT_MAP},
	0x72507eea6ef21aee: {TEXTURE_COLOR_MASK, SLOT_MAP},
	0x2b6c47845f607734: {TEXTURE_DAMAGE_MASK, SLOT_MAP_A},
	0xec7d65b8a55e2c81: {TEXTURE_DAMAGE_MASK, SLOT_MAP_B},
	0x36170f97445b6e2e: {TEXTURE_DECAL_DIFFUSE, SLOT_MAP},
	0xa1f1257a331854c4: {TEXTURE_DECAL_MASK, SLOT_MAP},
	0x9cf676c6403c9784: {TEXTURE_DECAL_NORMAL, SLOT_MAP},
	0x4930b970a7fd511f: {TEXTURE_DETAIL, SLOT_MAP},
	0xdf7e412256e87e74: {TEXTURE_DETAIL, SLOT_MAP_B},
	0xcb433436edca9efb: {TEXTURE_DETAIL_GLOSS, SLOT_MAP},
	0xbf468ef480aeeb89: {TEXTURE_DETAIL_MASK, SLOT_MAP},
	0x963ee638083014f1: {TEXTURE_DETAIL_NORMAL, SLOT_MAP},
	0x706cf2aa57a7a206: {TEXTURE_DETAIL_NORMAL, SLOT_MAP},
	0xd49d30f64a580c6f: {TEXTURE_DETAIL_NORMAL, SLOT_MAP_A},
	0x138c12cab06657da: {TEXTURE_DETAIL_NORMAL, SLOT_MAP_B},
	0x517cf321198c6149: {TEXTURE_DETAIL_NORMAL, SLOT_MAP_C},
	0xbdcd25f20f4199e3: {TEXTURE_PACKED_DETAIL, SLOT_MAP},
	0x8648fa82d1dbee1a: {TEXTURE_DIFFUSE, SLOT_MAP},
	0x94a590de74b1f5c1: {TEXTURE_DIFFUSE, SLOT_MAP_B},
	0xdc6e83a0253f163a: {TEXTURE_DIFFUSE_LOD, SLOT_MAP},
	0xb3022ea7fd418b40: {TEXTURE_EMISSION, SLOT_MAP},
	0xbdb4c92a546fb889: {TEXTURE_EMISSION, SLOT_MAP_B},
	0x13eee65865dfc90f: {TEXTURE_ENVIRONMENT, SLOT_MAP},
	0x257c2a45683f7d2f: {TEXTURE_ENVIRONMENT, SLOT_MAP},
	0x8cadb26098df1108: {TEXTURE_FLOW, SLOT_MAP},
	0x64fba83e34dd3959: {TEXTURE_GLOSS, SLOT_MAP},
	0x2642d6b4c8eccaa9: {TEXTURE_GRADIENT, SLOT_MAP},
	0xa334f76c317a0c02: {TEXTURE_GRADIENT, SLOT_MAP},
	0x2aa89260d8661f89: {TEXTURE_GRIME, SLOT_MAP},
	0x66cd6e57fa58a246: {TEXTURE_HEIGHT, SLOT_MAP},
	0xff787a61eac8a5b5: {TEXTURE_INK, SLOT_MAP},
	0x817afd5302445b8b: {TEXTURE_MICRODETAIL_DIFFUSE, SLOT_MAP},
	0xcb5b9a7f52168a41: {TEXTURE_MICRODETAIL_NORMAL, SLOT_MAP},
	0x1e3f6b9f2550389d: {TEXTURE_NORMAL, SLOT_MAP},
	0x3f380050afd9f81f: {TEXTURE_NORMAL, SLOT_MAP_B},
	0x436206e68a9e7cca: {TEXTURE_NORMAL, SLOT_MAP_B},
	0x7498a5f1b80ad419: {TEXTURE_NORMAL_ALTERNATE, SLOT_MAP},
	0xcaaae6432af348c0: {TEXTURE_OCCLUSION, SLOT_MAP},
	0x62c4957578189f07: {TEXTURE_OCCLUSION, SLOT_MAP},
	0x533f479d08bf0e5e: {TEXTURE_RAIN_FALL, SLOT_MAP},
	0x2eba1f4bba7a1543: {TEXTURE_RAIN_WET, SLOT_MAP},
	0xc8c94155fb7c634b: {TEXTURE_SPECULAR, SLOT_MAP},
	0xd5b57775db361670: {TEXTURE_SPECULAR, SLOT_MAP},
	0x120621d5fad4c090: {TEXTURE_SPECULAR, SLOT_MAP_B},
	0x37571b60b1f61180: {TEXTURE_TANGENT, SLOT_MAP_B},
	0xa45200a222dc2d80: {TEXTURE_THICKNESS, SLOT_MAP},
	0x8cf38a5266aaa7a4: {TEXTURE_TRANSITION_NORMAL, SLOT_MAP},
	0x87b579ec018fbd4d: {TEXTURE_VISIBILITY_MASK, SLOT_MAP},
	0xd7ea35534dbc457d: {TEXTURE_WRINKLE_MASK, SLOT_MAP_A},
	0x10fb176fb7821ec8: {TEXTURE_WRINKLE_MASK, SLOT_MAP_B},
	0xf340c5690ce9e059: {TEXTURE_WRINKLE_NORMAL, SLOT_MAP},
	0xa13d14fbb436f23b: {TEXTURE_WRINKLE_NORMAL, SLOT_MAP},
}

// TextureRef is one texture binding inside a material.
type TextureRef struct {
	Kind TextureKind
	Slot TextureSlot
	Name string
}

// parseTextureRef reads a usage checksum followed by a name checksum.
// A name that cannot be resolved through the dictionary downgrades the
// whole reference, there is no file name to convert anyway.
func parseTextureRef(bs *utils.BufStack, wlog *utils.WorkerLog) TextureRef {
	usage := textureUsageByHash[bs.ReadLU64()]
	nameHash := bs.ReadLU64()
	name := hashdb.Lookup(nameHash)
	if !name.Resolved() {
		// checksum zero stands for an empty binding
		if nameHash != 0 {
			wlog.Printf("Warning: could not resolve texture ID to name: %v",
				hashdb.FormatHash(nameHash))
		}
		return TextureRef{Kind: TEXTURE_UNKNOWN, Slot: SLOT_UNKNOWN}
	}
	return TextureRef{Kind: usage.Kind, Slot: usage.Slot, Name: name.Name}
}
