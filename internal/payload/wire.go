package payload

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Wire tags, one byte per node, matching the Kind order.
const (
	tagNull   byte = 0
	tagBool   byte = 1
	tagInt    byte = 2
	tagString byte = 3
	tagIdent  byte = 4
	tagList   byte = 5
	tagMap    byte = 6
)

// Encode writes v to w in the core's cross-process wire encoding
// (spec §3.1): one tag byte per node, varint-encoded lengths and
// int64 payloads, raw bytes for string content, and an ident as its
// uvarint handle. Map keys are
// written as their raw varint Ident value, not re-interned per entry.
func Encode(w io.Writer, v Value) error {
	buf := make([]byte, binary.MaxVarintLen64)
	switch v.kind {
	case KindNull:
		_, err := w.Write([]byte{tagNull})
		return err
	case KindBool:
		b := byte(0)
		if v.b {
			b = 1
		}
		_, err := w.Write([]byte{tagBool, b})
		return err
	case KindInt:
		if _, err := w.Write([]byte{tagInt}); err != nil {
			return err
		}
		n := binary.PutVarint(buf, v.i)
		_, err := w.Write(buf[:n])
		return err
	case KindString:
		return writeLengthPrefixed(w, tagString, []byte(v.s))
	case KindIdent:
		if _, err := w.Write([]byte{tagIdent}); err != nil {
			return err
		}
		n := binary.PutUvarint(buf, uint64(v.id))
		_, err := w.Write(buf[:n])
		return err
	case KindList:
		if _, err := w.Write([]byte{tagList}); err != nil {
			return err
		}
		n := binary.PutUvarint(buf, uint64(len(v.list)))
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
		for _, item := range v.list {
			if err := Encode(w, item); err != nil {
				return err
			}
		}
		return nil
	case KindMap:
		if _, err := w.Write([]byte{tagMap}); err != nil {
			return err
		}
		n := binary.PutUvarint(buf, uint64(len(v.m)))
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
		for k, val := range v.m {
			kn := binary.PutUvarint(buf, uint64(k))
			if _, err := w.Write(buf[:kn]); err != nil {
				return err
			}
			if err := Encode(w, val); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("payload: unknown kind %d", v.kind)
	}
}

func writeLengthPrefixed(w io.Writer, tag byte, data []byte) error {
	buf := make([]byte, binary.MaxVarintLen64)
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	n := binary.PutUvarint(buf, uint64(len(data)))
	if _, err := w.Write(buf[:n]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// Decode reads one Value from r in the wire encoding written by Encode.
func Decode(r io.ByteReader) (Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Value{}, err
	}
	switch tag {
	case tagNull:
		return Null(), nil
	case tagBool:
		b, err := r.ReadByte()
		if err != nil {
			return Value{}, err
		}
		return Bool(b != 0), nil
	case tagInt:
		n, err := binary.ReadVarint(r)
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case tagString:
		data, err := readLengthPrefixed(r)
		if err != nil {
			return Value{}, err
		}
		return String(string(data)), nil
	case tagIdent:
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return Value{}, err
		}
		return FromIdent(Ident(n)), nil
	case tagList:
		count, err := binary.ReadUvarint(r)
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, count)
		for i := uint64(0); i < count; i++ {
			item, err := Decode(r)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return List(items), nil
	case tagMap:
		count, err := binary.ReadUvarint(r)
		if err != nil {
			return Value{}, err
		}
		m := make(map[Ident]Value, count)
		for i := uint64(0); i < count; i++ {
			k, err := binary.ReadUvarint(r)
			if err != nil {
				return Value{}, err
			}
			val, err := Decode(r)
			if err != nil {
				return Value{}, err
			}
			m[Ident(k)] = val
		}
		return Map(m), nil
	default:
		return Value{}, fmt.Errorf("payload: unknown wire tag %d", tag)
	}
}

func readLengthPrefixed(r io.ByteReader) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i := range out {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// EncodeBytes is a convenience wrapper returning the encoded bytes.
func EncodeBytes(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBytes is a convenience wrapper decoding a single Value from a
// byte slice.
func DecodeBytes(data []byte) (Value, error) {
	return Decode(bytes.NewReader(data))
}
