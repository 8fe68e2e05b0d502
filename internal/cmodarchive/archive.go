// Package cmodarchive implements the CMOD archive codec: the bit-exact
// binary ".cmod" envelope packed/unpacked around a loaded
// internal/cmod.Module.
//
// The envelope is a fixed 16-byte header (magic "CHTLCMOD", version,
// file count), a flags word, then one length-prefixed entry per file with
// an IEEE CRC-32 checksum and optional run-length compression.
package cmodarchive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"sort"

	"github.com/chtl-lang/chtl/internal/cmod"
)

const (
	magic         = "CHTLCMOD"
	formatVersion = uint32(1)
	flagCompress  = uint32(1)
)

// entry is one packed file: its archive-relative name and payload.
type entry struct {
	name string
	data []byte
}

// Pack serializes m into w in the archive's binary format. The info entry
// (serialized [Info]+[Export]) is written first, then every source file in
// deterministic order, then any sub-module's files recursively under
// "src/<name>/...".
func Pack(w io.Writer, m *cmod.Module, compress bool) error {
	entries := collectEntries(m, "")

	var body bytes.Buffer
	for _, e := range entries {
		data := e.data
		originalSize := uint32(len(data))
		if compress {
			data = rleCompress(data)
		}
		checksum := crc32.ChecksumIEEE(data)

		var head [16]byte
		binary.LittleEndian.PutUint32(head[0:4], uint32(len(e.name)))
		binary.LittleEndian.PutUint32(head[4:8], uint32(len(data)))
		binary.LittleEndian.PutUint32(head[8:12], originalSize)
		binary.LittleEndian.PutUint32(head[12:16], checksum)

		body.Write(head[:])
		body.WriteString(e.name)
		body.Write(data)
	}

	flags := uint32(0)
	if compress {
		flags = flagCompress
	}

	var header [16]byte
	copy(header[0:8], magic)
	binary.LittleEndian.PutUint32(header[8:12], formatVersion)
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(entries)))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	var flagsBuf [4]byte
	binary.LittleEndian.PutUint32(flagsBuf[:], flags)
	if _, err := w.Write(flagsBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

// collectEntries flattens m (and its sub-modules) into the archive's flat
// entry list, in the order Pack writes them: info file first, then source
// files sorted by path, then each sub-module's entries by sub-module name.
func collectEntries(m *cmod.Module, prefix string) []entry {
	infoText := m.Info.Serialize() + cmod.EffectiveExport(m).Serialize()
	entries := []entry{{name: prefix + "info/" + m.Info.Name + ".chtl", data: []byte(infoText)}}

	keys := append([]string(nil), m.SourceKeys...)
	sort.Strings(keys)
	for _, rel := range keys {
		entries = append(entries, entry{name: prefix + "src/" + rel, data: []byte(m.Sources[rel])})
	}

	subNames := make([]string, 0, len(m.SubModules))
	for name := range m.SubModules {
		subNames = append(subNames, name)
	}
	sort.Strings(subNames)
	for _, name := range subNames {
		entries = append(entries, collectEntries(m.SubModules[name], prefix+"src/"+name+"/")...)
	}
	return entries
}

// Unpack reads an archive written by Pack back into a Module whose name is
// given by moduleName (the archive's file-system stem; callers already
// have it from the requested load).
func Unpack(r io.Reader, moduleName string) (*cmod.Module, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) < 20 {
		return nil, fmt.Errorf("cmod archive: truncated header")
	}
	if string(raw[0:8]) != magic {
		return nil, fmt.Errorf("cmod archive: bad magic %q, expected %q", raw[0:8], magic)
	}
	version := binary.LittleEndian.Uint32(raw[8:12])
	if version != formatVersion {
		return nil, fmt.Errorf("cmod archive: unsupported version %d", version)
	}
	fileCount := binary.LittleEndian.Uint32(raw[12:16])
	flags := binary.LittleEndian.Uint32(raw[16:20])
	compressed := flags&flagCompress != 0

	m := cmod.NewModule()
	pos := 20
	for i := uint32(0); i < fileCount; i++ {
		if pos+16 > len(raw) {
			return nil, fmt.Errorf("cmod archive: truncated entry header at index %d", i)
		}
		nameLen := binary.LittleEndian.Uint32(raw[pos : pos+4])
		dataLen := binary.LittleEndian.Uint32(raw[pos+4 : pos+8])
		originalSize := binary.LittleEndian.Uint32(raw[pos+8 : pos+12])
		checksum := binary.LittleEndian.Uint32(raw[pos+12 : pos+16])
		pos += 16

		if pos+int(nameLen) > len(raw) {
			return nil, fmt.Errorf("cmod archive: truncated name at index %d", i)
		}
		name := string(raw[pos : pos+int(nameLen)])
		pos += int(nameLen)

		if pos+int(dataLen) > len(raw) {
			return nil, fmt.Errorf("cmod archive: truncated payload for %q", name)
		}
		data := raw[pos : pos+int(dataLen)]
		pos += int(dataLen)

		if crc32.ChecksumIEEE(data) != checksum {
			return nil, fmt.Errorf("cmod archive: checksum mismatch for %q", name)
		}

		if compressed {
			decoded := rleDecompress(data, int(originalSize))
			if len(decoded) != int(originalSize) {
				return nil, fmt.Errorf("cmod archive: decompressed size mismatch for %q", name)
			}
			data = decoded
		}

		if err := cmod.IngestArchiveEntry(m, moduleName, name, data); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// rleCompress encodes a run of length >= 4 (capped at 255) as
// "0xFF count value"; shorter runs, including literal 0xFF bytes, pass
// through verbatim.
func rleCompress(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		value := data[i]
		count := 1
		for i+count < len(data) && data[i+count] == value && count < 255 {
			count++
		}
		if count > 3 {
			out = append(out, 0xFF, byte(count), value)
			i += count
		} else {
			out = append(out, value)
			i++
		}
	}
	return out
}

// rleDecompress mirrors rleCompress; the caller verifies the decoded
// length against the entry's recorded original size.
func rleDecompress(data []byte, originalSize int) []byte {
	out := make([]byte, 0, originalSize)
	for i := 0; i < len(data); {
		if i+2 < len(data) && data[i] == 0xFF {
			count := data[i+1]
			value := data[i+2]
			for j := byte(0); j < count; j++ {
				out = append(out, value)
			}
			i += 3
		} else {
			out = append(out, data[i])
			i++
		}
	}
	return out
}
