package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// SignalDef describes one physical signal packed into a CAN frame.
// Only little-endian packing is supported.
type SignalDef struct {
	Name      string
	StartBit  int
	BitLength int
	Signed    bool
	Factor    float64
	Offset    float64
	Min       float64
	Max       float64
	Default   float64
	Unit      string
}

// FrameDef describes one CAN frame and its signals.
type FrameDef struct {
	ID      uint32
	Name    string
	DLC     int
	Signals []SignalDef
}

// CANMap indexes frame definitions by id and by name.
type CANMap struct {
	ByID   map[uint32]*FrameDef
	ByName map[string]*FrameDef
}

func (m *CANMap) FrameNames() []string {
	out := make([]string, 0, len(m.ByName))
	for k := range m.ByName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *CANMap) FrameByName(name string) (*FrameDef, error) {
	fd, ok := m.ByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown frame %q (available: %v)", name, m.FrameNames())
	}
	return fd, nil
}

func (m *CANMap) FrameByID(id uint32) (*FrameDef, error) {
	fd, ok := m.ByID[id]
	if !ok {
		return nil, fmt.Errorf("unknown frame id 0x%X", id)
	}
	return fd, nil
}

// LoadCANMap reads a signal-map CSV (one row per signal, frames grouped by
// frame_id) and builds the lookup tables.
func LoadCANMap(csvPath string) (*CANMap, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, k := range []string{
		"frame_id", "frame_name", "dlc",
		"signal_name", "start_bit", "bit_length",
		"signed", "factor", "offset", "min", "max", "default", "unit",
	} {
		if _, ok := idx[k]; !ok {
			return nil, fmt.Errorf("signal map missing required column %q", k)
		}
	}

	m := &CANMap{
		ByID:   map[uint32]*FrameDef{},
		ByName: map[string]*FrameDef{},
	}

	line := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		frameID, err := parseHexOrDecUint32(rec[idx["frame_id"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid frame_id %q: %w", line, rec[idx["frame_id"]], err)
		}
		frameName := strings.TrimSpace(rec[idx["frame_name"]])

		dlc, err := parseInt(rec[idx["dlc"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid dlc: %w", line, err)
		}
		if dlc <= 0 || dlc > 8 {
			return nil, fmt.Errorf("frame %s (0x%X): invalid dlc %d", frameName, frameID, dlc)
		}

		sig := SignalDef{
			Name: strings.TrimSpace(rec[idx["signal_name"]]),
			Unit: strings.TrimSpace(rec[idx["unit"]]),
		}
		if sig.StartBit, err = parseInt(rec[idx["start_bit"]]); err != nil {
			return nil, fmt.Errorf("line %d: invalid start_bit: %w", line, err)
		}
		if sig.BitLength, err = parseInt(rec[idx["bit_length"]]); err != nil {
			return nil, fmt.Errorf("line %d: invalid bit_length: %w", line, err)
		}
		sig.Signed = parseBool(rec[idx["signed"]])
		if sig.Factor, err = parseFloat(rec[idx["factor"]]); err != nil {
			return nil, fmt.Errorf("line %d: invalid factor: %w", line, err)
		}
		if sig.Offset, err = parseFloat(rec[idx["offset"]]); err != nil {
			return nil, fmt.Errorf("line %d: invalid offset: %w", line, err)
		}
		if sig.Min, err = parseFloat(rec[idx["min"]]); err != nil {
			return nil, fmt.Errorf("line %d: invalid min: %w", line, err)
		}
		if sig.Max, err = parseFloat(rec[idx["max"]]); err != nil {
			return nil, fmt.Errorf("line %d: invalid max: %w", line, err)
		}
		if sig.Default, err = parseFloat(rec[idx["default"]]); err != nil {
			return nil, fmt.Errorf("line %d: invalid default: %w", line, err)
		}

		if sig.BitLength <= 0 || sig.BitLength > 64 {
			return nil, fmt.Errorf("frame %s signal %s: invalid bit_length %d", frameName, sig.Name, sig.BitLength)
		}
		if sig.StartBit < 0 || sig.StartBit+sig.BitLength > dlc*8 {
			return nil, fmt.Errorf("frame %s signal %s: field [%d,%d) outside %d-byte payload",
				frameName, sig.Name, sig.StartBit, sig.StartBit+sig.BitLength, dlc)
		}

		fd, ok := m.ByID[frameID]
		if !ok {
			fd = &FrameDef{
				ID:   frameID,
				Name: frameName,
				DLC:  dlc,
			}
			m.ByID[frameID] = fd
			m.ByName[frameName] = fd
		}
		if fd.DLC != dlc {
			return nil, fmt.Errorf("frame %s (0x%X) has inconsistent DLC (%d vs %d)", frameName, frameID, fd.DLC, dlc)
		}
		fd.Signals = append(fd.Signals, sig)
	}

	for _, fd := range m.ByID {
		sort.Slice(fd.Signals, func(i, j int) bool { return fd.Signals[i].StartBit < fd.Signals[j].StartBit })
	}

	return m, nil
}

func parseHexOrDecUint32(s string) (uint32, error) {
	ss := strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(ss, "0x") || strings.HasPrefix(ss, "0X") {
		base = 16
		ss = ss[2:]
	}
	u, err := strconv.ParseUint(ss, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(u), nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseBool(s string) bool {
	ss := strings.TrimSpace(strings.ToLower(s))
	return ss == "true" || ss == "1" || ss == "yes"
}
