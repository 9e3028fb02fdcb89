package vm

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Program images: CBOR serialization of an assembled Program
// ---------------------------------------------------------------------------

// ImageVersion is the current image format version.
// Increment when making incompatible changes to the format.
const ImageVersion uint16 = 1

// ImageMagic identifies a wilc program image.
const ImageMagic = "WILC"

// ErrNotAnImage is returned when decoding data without the image header.
var ErrNotAnImage = errors.New("not a wilc program image")

type imageFile struct {
	Magic   string         `cbor:"1,keyasint"`
	Version uint16         `cbor:"2,keyasint"`
	Units   []imageUnit    `cbor:"3,keyasint"`
	Code    []imageInstr   `cbor:"4,keyasint"`
	Imports []ImportRecord `cbor:"5,keyasint,omitempty"`
}

type imageUnit struct {
	File   string   `cbor:"1,keyasint"`
	Digest [32]byte `cbor:"2,keyasint"`
}

type imageInstr struct {
	Op     Opcode       `cbor:"1,keyasint"`
	Args   []imageValue `cbor:"2,keyasint,omitempty"`
	Line   int          `cbor:"3,keyasint"`
	Column int          `cbor:"4,keyasint"`
	Jump   int          `cbor:"5,keyasint"`
	Unit   int          `cbor:"6,keyasint"`
}

type imageValue struct {
	Type Type    `cbor:"1,keyasint"`
	Int  int64   `cbor:"2,keyasint,omitempty"`
	Text string  `cbor:"3,keyasint,omitempty"`
	List []int64 `cbor:"4,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// EncodeImage serializes a program to CBOR bytes.
func EncodeImage(p *Program) ([]byte, error) {
	img := imageFile{
		Magic:   ImageMagic,
		Version: ImageVersion,
		Units:   make([]imageUnit, len(p.Units)),
		Code:    make([]imageInstr, len(p.Code)),
		Imports: p.Imports,
	}
	for i, u := range p.Units {
		img.Units[i] = imageUnit{File: u.File, Digest: u.Digest}
	}
	for i := range p.Code {
		in := &p.Code[i]
		args := make([]imageValue, len(in.Args))
		for j, a := range in.Args {
			args[j] = encodeValue(a)
		}
		img.Code[i] = imageInstr{
			Op:     in.Op,
			Args:   args,
			Line:   in.Pos.Line,
			Column: in.Pos.Column,
			Jump:   in.Jump,
			Unit:   in.Unit,
		}
	}
	return cborEncMode.Marshal(&img)
}

// DecodeImage deserializes and verifies a program image.
func DecodeImage(data []byte) (*Program, error) {
	var img imageFile
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("vm: unmarshal image: %w", err)
	}
	if img.Magic != ImageMagic {
		return nil, ErrNotAnImage
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("vm: image version %d, want %d", img.Version, ImageVersion)
	}

	p := &Program{
		Units:   make([]Unit, len(img.Units)),
		Code:    make([]Instruction, len(img.Code)),
		Imports: img.Imports,
	}
	for i, u := range img.Units {
		p.Units[i] = Unit{File: u.File, Digest: u.Digest}
	}
	for i, ii := range img.Code {
		args := make([]Value, len(ii.Args))
		for j, a := range ii.Args {
			v, err := decodeValue(a)
			if err != nil {
				return nil, fmt.Errorf("vm: instruction %d argument %d: %w", i, j, err)
			}
			args[j] = v
		}
		var file string
		if ii.Unit >= 0 && ii.Unit < len(p.Units) {
			file = p.Units[ii.Unit].File
		}
		p.Code[i] = Instruction{
			Op:      ii.Op,
			Args:    args,
			Pos:     Position{File: file, Line: ii.Line, Column: ii.Column},
			Address: i,
			Jump:    ii.Jump,
			Unit:    ii.Unit,
		}
	}
	if err := p.Verify(); err != nil {
		return nil, fmt.Errorf("vm: corrupt image: %w", err)
	}
	return p, nil
}

// IsImage reports whether data starts like an encoded program image.
func IsImage(data []byte) bool {
	var head struct {
		Magic string `cbor:"1,keyasint"`
	}
	if err := cbor.Unmarshal(data, &head); err != nil {
		return false
	}
	return head.Magic == ImageMagic
}

func encodeValue(v Value) imageValue {
	switch v.typ {
	case TypeInteger:
		return imageValue{Type: v.typ, Int: v.num}
	case TypeList:
		return imageValue{Type: v.typ, List: v.list.Items}
	default:
		return imageValue{Type: v.typ, Text: v.text}
	}
}

func decodeValue(iv imageValue) (Value, error) {
	switch iv.Type {
	case TypeName:
		return NameValue(iv.Text), nil
	case TypeInteger:
		return IntValue(iv.Int), nil
	case TypeString:
		return StringValue(iv.Text), nil
	case TypeList:
		return ListValue(iv.List...), nil
	}
	return Value{}, fmt.Errorf("invalid value type %d", iv.Type)
}
