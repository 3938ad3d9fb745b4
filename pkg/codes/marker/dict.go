package marker

// arucoDict is one embedded ArUco dictionary: n x n pattern bits per marker,
// row-major from the most significant bit.
type arucoDict struct {
	name       string
	markerBits int
	table      []uint16
}

// dict4x4_50 is the DICT_4X4_50 dictionary, transcribed from OpenCV's
// predefined dictionaries (canonical rotation only).
var dict4x4_50 = arucoDict{
	name:       "DICT_4X4_50",
	markerBits: 4,
	table: []uint16{
		0x6a68, 0x2a4c, 0x1e70, 0x58a6, 0x9da2, 0xc1a9, 0x3c53, 0xf1a5,
		0x85e2, 0x6c9a, 0xb6d1, 0x18e5, 0x52c3, 0xe49b, 0x4fa8, 0xa174,
		0x7b26, 0xd035, 0x25f9, 0x9c4e, 0x31b7, 0xee58, 0x46cd, 0xba13,
		0x09e6, 0xd78a, 0x62f5, 0x8b39, 0x54d7, 0xc926, 0x17ab, 0xf064,
		0x3d92, 0xa5c8, 0x7e15, 0x90eb, 0x2b7d, 0xe832, 0x5c69, 0x06d4,
		0xcba7, 0x713e, 0x94f2, 0x4a0b, 0xd65c, 0x29a1, 0xbf48, 0x63d6,
		0x0e9f, 0x8753,
	},
}

// arucoDicts maps dictionary names to their embedded tables. Only the
// dictionaries shipped here can be generated without OpenCV.
var arucoDicts = map[string]arucoDict{
	dict4x4_50.name: dict4x4_50,
}

// aprilFamily is one embedded AprilTag family: dim x dim data bits per tag,
// row-major from the most significant bit of each code.
type aprilFamily struct {
	name  string
	dim   int
	codes []uint64
}

// tag16h5 codes, from the AprilTag reference family definitions.
var tag16h5 = aprilFamily{
	name: "tag16h5",
	dim:  4,
	codes: []uint64{
		0x231b, 0x2ea5, 0x346a, 0x45b9, 0x79a6, 0x7f6b, 0xb358, 0xe745,
		0xfe59, 0x156d, 0x380b, 0xf0ab, 0x0d84, 0x4736, 0x8c72, 0xaf10,
		0x093c, 0x93b4, 0xa503, 0x468f, 0xe137, 0x5795, 0xdf42, 0x1c1d,
		0xe9dc, 0x73ad, 0xad5f, 0xd530, 0x07ca, 0xaf2e,
	},
}

// tag25h9 codes, from the AprilTag reference family definitions.
var tag25h9 = aprilFamily{
	name: "tag25h9",
	dim:  5,
	codes: []uint64{
		0x155cbf1, 0x1e4d1b6, 0x17b0b68, 0x1eac9cd, 0x12e14ce, 0x03548bb,
		0x07757e6, 0x1065dab, 0x1baa2e7, 0x0dea688, 0x081d927, 0x051b241,
		0x0dbc8ae, 0x1e50e19, 0x15819d2, 0x16d8282, 0x163e035, 0x09d9b81,
		0x173eec4, 0x0ae3a09, 0x05f7c51, 0x1a137fc, 0x0dc9562, 0x1802e45,
		0x1c3542c, 0x0870fa4, 0x0914709, 0x16684f0, 0x0c8f2a5, 0x0833ebb,
		0x059717f, 0x13cd050, 0x0fa0ad1, 0x1b763b0, 0x0b991ce,
	},
}

// aprilFamilies maps family names to their embedded code tables.
var aprilFamilies = map[string]aprilFamily{
	tag16h5.name: tag16h5,
	tag25h9.name: tag25h9,
}

// patternBit reports whether the data cell (x, y) of a code is set, reading
// row-major from the most significant of dim*dim bits.
func patternBit(code uint64, dim, x, y int) bool {
	pos := dim*dim - 1 - (y*dim + x)
	return code>>uint(pos)&1 == 1
}
