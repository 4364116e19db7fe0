package record

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"lbm/internal/lattice"
)

// snapshotMagic prefixes every payload.
var snapshotMagic = [4]byte{'L', 'B', 'M', '1'}

type snapshotHeader struct {
	Magic  [4]byte
	NX, NY int32
	Step   int64
}

// EncodeSnapshot serialises a snapshot as a gzip stream of a fixed header
// followed by the nine populations, rho, ux and uy.
func EncodeSnapshot(snap *lattice.Snapshot) ([]byte, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	hdr := snapshotHeader{Magic: snapshotMagic, NX: int32(snap.NX), NY: int32(snap.NY), Step: int64(snap.Step)}
	if err := binary.Write(zw, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("writing snapshot header: %w", err)
	}
	for _, field := range snapshotFields(snap) {
		if err := binary.Write(zw, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("writing snapshot field: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// MaxSnapshotCells bounds the grid a payload may declare before any field
// buffer is allocated.
const MaxSnapshotCells = 1 << 22

// DecodeSnapshot reverses EncodeSnapshot.
func DecodeSnapshot(payload []byte) (*lattice.Snapshot, error) {
	return decodeSnapshot(payload, 0, 0)
}

// decodeSnapshot decodes payload and, when nx and ny are positive, requires
// the header to declare that grid.
func decodeSnapshot(payload []byte, nx, ny int) (*lattice.Snapshot, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer zr.Close()

	var hdr snapshotHeader
	if err := binary.Read(zr, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	if hdr.Magic != snapshotMagic {
		return nil, errors.New("not a lattice snapshot")
	}
	if hdr.NX <= 0 || hdr.NY <= 0 || int64(hdr.NX)*int64(hdr.NY) > MaxSnapshotCells {
		return nil, fmt.Errorf("%w: snapshot grid %dx%d", lattice.ErrShapeMismatch, hdr.NX, hdr.NY)
	}
	if nx > 0 && ny > 0 && (int(hdr.NX) != nx || int(hdr.NY) != ny) {
		return nil, fmt.Errorf("%w: snapshot header %dx%d, stored as %dx%d", lattice.ErrShapeMismatch, hdr.NX, hdr.NY, nx, ny)
	}
	n := int(hdr.NX) * int(hdr.NY)
	snap := &lattice.Snapshot{
		NX: int(hdr.NX), NY: int(hdr.NY), Step: int(hdr.Step),
		Rho: make([]float64, n),
		Ux:  make([]float64, n),
		Uy:  make([]float64, n),
	}
	for i := range snap.F {
		snap.F[i] = make([]float64, n)
	}
	for _, field := range snapshotFields(snap) {
		if err := binary.Read(zr, binary.LittleEndian, field); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: truncated snapshot", lattice.ErrShapeMismatch)
			}
			return nil, fmt.Errorf("reading snapshot field: %w", err)
		}
	}
	return snap, nil
}

func snapshotFields(snap *lattice.Snapshot) [][]float64 {
	fields := make([][]float64, 0, lattice.Q+3)
	for i := range snap.F {
		fields = append(fields, snap.F[i])
	}
	return append(fields, snap.Rho, snap.Ux, snap.Uy)
}
