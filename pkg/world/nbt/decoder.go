package nbt

import "fmt"

// Decoder holds the cursor and options for a single decode_root
// invocation. It is not reused across calls.
type Decoder struct {
	cur  *cursor
	opts DecodeOptions
}

// NewDecoder builds a Decoder over data with the given options.
func NewDecoder(data []byte, opts DecodeOptions) *Decoder {
	return &Decoder{cur: newCursor(data), opts: opts}
}

// DecodeRoot decodes a single root Compound using DefaultDecodeOptions.
// The input must begin with a named Compound tag (type id 10); trailing
// bytes after the root's terminating End tag are tolerated, not required
// to be consumed.
func DecodeRoot(data []byte) (*Tag, error) {
	return DecodeRootWithOptions(data, DefaultDecodeOptions())
}

// DecodeRootWithOptions is DecodeRoot with an explicit DecodeOptions,
// primarily to override MaxDepth.
func DecodeRootWithOptions(data []byte, opts DecodeOptions) (*Tag, error) {
	d := NewDecoder(data, opts)

	idRaw, err := d.cur.readU8()
	if err != nil {
		return nil, fmt.Errorf("nbt: read root tag id: %w", err)
	}
	if Kind(idRaw) != KindCompound {
		return nil, fmt.Errorf("nbt: root tag id %d is not Compound: %w", idRaw, ErrUnexpectedRootTag)
	}

	name, err := d.readName()
	if err != nil {
		return nil, fmt.Errorf("nbt: read root name: %w", err)
	}

	root, err := d.readPayload(KindCompound, 1)
	if err != nil {
		return nil, err
	}
	root.Name = name
	return root, nil
}

func (d *Decoder) readName() (string, error) {
	n, err := d.cur.readU16BE()
	if err != nil {
		return "", err
	}
	raw, err := d.cur.readBytes(int(n))
	if err != nil {
		return "", err
	}
	s, err := decodeModifiedUTF8(raw)
	if err != nil {
		return "", err
	}
	return s, nil
}

// readPayload reads the payload of a tag whose type id is already known,
// at the given nesting depth (the root compound is depth 1). Compound and
// List recurse with depth+1 and fail with ErrDepthExceeded rather than
// overflow the machine stack on adversarial input.
func (d *Decoder) readPayload(kind Kind, depth int) (*Tag, error) {
	switch kind {
	case KindEnd:
		return &Tag{Kind: KindEnd}, nil

	case KindByte:
		v, err := d.cur.readI8()
		if err != nil {
			return nil, err
		}
		return &Tag{Kind: KindByte, byteVal: v}, nil

	case KindShort:
		v, err := d.cur.readI16BE()
		if err != nil {
			return nil, err
		}
		return &Tag{Kind: KindShort, shortVal: v}, nil

	case KindInt:
		v, err := d.cur.readI32BE()
		if err != nil {
			return nil, err
		}
		return &Tag{Kind: KindInt, intVal: v}, nil

	case KindLong:
		v, err := d.cur.readI64BE()
		if err != nil {
			return nil, err
		}
		return &Tag{Kind: KindLong, longVal: v}, nil

	case KindFloat:
		v, err := d.cur.readF32BE()
		if err != nil {
			return nil, err
		}
		return &Tag{Kind: KindFloat, floatVal: v}, nil

	case KindDouble:
		v, err := d.cur.readF64BE()
		if err != nil {
			return nil, err
		}
		return &Tag{Kind: KindDouble, doubleVal: v}, nil

	case KindByteArray:
		n, err := d.cur.readI32BE()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, ErrNegativeLength
		}
		raw, err := d.cur.readBytes(int(n))
		if err != nil {
			return nil, err
		}
		arr := make([]int8, n)
		for i, b := range raw {
			arr[i] = int8(b)
		}
		return &Tag{Kind: KindByteArray, byteArray: arr}, nil

	case KindString:
		s, err := d.readName()
		if err != nil {
			return nil, err
		}
		return &Tag{Kind: KindString, stringVal: s}, nil

	case KindList:
		if depth+1 > d.opts.MaxDepth {
			return nil, ErrDepthExceeded
		}
		elemIDRaw, err := d.cur.readU8()
		if err != nil {
			return nil, err
		}
		elemKind := Kind(elemIDRaw)

		n, err := d.cur.readI32BE()
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return &Tag{Kind: KindList, listType: elemKind}, nil
		}
		if !isValidKind(elemKind) {
			return nil, &UnknownTagIDError{ID: elemIDRaw}
		}

		list := make([]*Tag, 0, n)
		for i := int32(0); i < n; i++ {
			child, err := d.readPayload(elemKind, depth+1)
			if err != nil {
				return nil, err
			}
			if child.Kind != elemKind {
				return nil, ErrListTypeMismatch
			}
			list = append(list, child)
		}
		return &Tag{Kind: KindList, listType: elemKind, list: list}, nil

	case KindCompound:
		if depth+1 > d.opts.MaxDepth {
			return nil, ErrDepthExceeded
		}
		comp := NewCompound()
		for {
			idRaw, err := d.cur.readU8()
			if err != nil {
				return nil, err
			}
			if Kind(idRaw) == KindEnd {
				break
			}
			if !isValidKind(Kind(idRaw)) {
				return nil, &UnknownTagIDError{ID: idRaw}
			}
			name, err := d.readName()
			if err != nil {
				return nil, err
			}
			child, err := d.readPayload(Kind(idRaw), depth+1)
			if err != nil {
				return nil, err
			}
			child.Name = name
			comp.Set(name, child)
		}
		return &Tag{Kind: KindCompound, compound: comp}, nil

	case KindIntArray:
		n, err := d.cur.readI32BE()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, ErrNegativeLength
		}
		arr := make([]int32, n)
		for i := int32(0); i < n; i++ {
			v, err := d.cur.readI32BE()
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return &Tag{Kind: KindIntArray, intArray: arr}, nil

	case KindLongArray:
		n, err := d.cur.readI32BE()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, ErrNegativeLength
		}
		arr := make([]int64, n)
		for i := int32(0); i < n; i++ {
			v, err := d.cur.readI64BE()
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return &Tag{Kind: KindLongArray, longArray: arr}, nil

	default:
		return nil, &UnknownTagIDError{ID: byte(kind)}
	}
}
