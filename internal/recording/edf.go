package recording

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/OpenPSG/edf"

	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
)

const (
	// Fixed-width EDF header layout
	edfFixedHeaderSize = 256
	edfSignalHeaderLen = 256
	edfLabelWidth      = 16

	// EDF+ stores annotations in a pseudo-signal with this label
	edfAnnotationsLabel = "EDF Annotations"

	// Largest data record the EDF standard recommends, in bytes
	edfMaxRecordBytes = 61440

	edfDigitalMin = -32767
	edfDigitalMax = 32767
)

// edfLayout is the part of the EDF header needed to size and label signals.
type edfLayout struct {
	dataRecords      int
	recordDuration   float64 // seconds
	labels           []string
	samplesPerRecord []int
}

// readEDFLayout parses the fixed-width header fields the edf reader does not expose.
func readEDFLayout(r io.ReadSeeker) (*edfLayout, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	fixed := make([]byte, edfFixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	records, err := strconv.Atoi(strings.TrimSpace(string(fixed[236:244])))
	if err != nil {
		return nil, fmt.Errorf("error parsing number of data records: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(fixed[244:252])), 64)
	if err != nil {
		return nil, fmt.Errorf("error parsing data record duration: %w", err)
	}
	count, err := strconv.Atoi(strings.TrimSpace(string(fixed[252:256])))
	if err != nil {
		return nil, fmt.Errorf("error parsing signal count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("invalid signal count %d", count)
	}

	signals := make([]byte, count*edfSignalHeaderLen)
	if _, err := io.ReadFull(r, signals); err != nil {
		return nil, fmt.Errorf("error reading signal headers: %w", err)
	}

	layout := &edfLayout{
		dataRecords:      records,
		recordDuration:   duration,
		labels:           make([]string, count),
		samplesPerRecord: make([]int, count),
	}

	// Per-signal fields are stored field by field: 16 label, 80 transducer,
	// 8 dimension, 8 pmin, 8 pmax, 8 dmin, 8 dmax, 80 prefilter, 8 samples, 32 reserved.
	samplesOffset := count * (16 + 80 + 8 + 8 + 8 + 8 + 8 + 80)
	for i := range count {
		layout.labels[i] = strings.TrimSpace(string(signals[i*edfLabelWidth : (i+1)*edfLabelWidth]))

		field := signals[samplesOffset+i*8 : samplesOffset+(i+1)*8]
		n, err := strconv.Atoi(strings.TrimSpace(string(field)))
		if err != nil {
			return nil, fmt.Errorf("error parsing samples per record of signal %d: %w", i, err)
		}
		layout.samplesPerRecord[i] = n
	}

	return layout, nil
}

// LoadEDF reads every data signal of an EDF/EDF+ file into a Recording.
// All data signals must share one sampling rate.
func LoadEDF(path string) (*Recording, error) {
	name := BaseName(path)

	f, err := os.Open(path) //nolint:gosec // G304: path is a user-selected record
	if err != nil {
		return nil, errors.New(err).
			Component("recording").
			Category(errors.CategoryFileIO).
			Context("record", name).
			Context("operation", "open_edf").
			Build()
	}
	defer func() {
		if err := f.Close(); err != nil {
			GetLogger().Warn("failed to close EDF file", logger.String("record", name), logger.Error(err))
		}
	}()

	rec, err := decodeEDF(f, name)
	if err != nil {
		return nil, errors.New(err).
			Component("recording").
			Category(errors.CategoryFileParsing).
			Context("record", name).
			Context("operation", "decode_edf").
			Build()
	}

	GetLogger().Debug("loaded EDF record",
		logger.String("record", name),
		logger.Int("channels", len(rec.channels)),
		logger.Int("samples", rec.Len()),
		logger.Float64("sampling_rate", rec.samplingRate))

	return rec, nil
}

func decodeEDF(f io.ReadSeeker, name string) (*Recording, error) {
	layout, err := readEDFLayout(f)
	if err != nil {
		return nil, err
	}
	if layout.dataRecords < 0 {
		return nil, fmt.Errorf("unfinished EDF file: data record count unknown")
	}
	if layout.recordDuration <= 0 {
		return nil, fmt.Errorf("data record duration must be positive, got %g", layout.recordDuration)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	reader, err := edf.Open(f)
	if err != nil {
		return nil, err
	}

	var (
		channels []string
		data     [][]float64
		rate     float64
	)
	for i, label := range layout.labels {
		if label == edfAnnotationsLabel {
			continue
		}

		signalRate := float64(layout.samplesPerRecord[i]) / layout.recordDuration
		if rate == 0 {
			rate = signalRate
		} else if signalRate != rate {
			return nil, fmt.Errorf("signal %q sampled at %g Hz, expected %g Hz", label, signalRate, rate)
		}

		sr, err := reader.Signal(i)
		if err != nil {
			return nil, fmt.Errorf("signal %q: %w", label, err)
		}

		samples := make([]float64, layout.dataRecords*layout.samplesPerRecord[i])
		n, err := sr.Read(samples)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading signal %q: %w", label, err)
		}

		channels = append(channels, label)
		data = append(data, samples[:n])
	}

	if len(channels) == 0 {
		return nil, fmt.Errorf("no data signals in EDF file")
	}

	return New(name, rate, channels, data)
}

// WriteEDF stores rec as an EDF file at path. The sampling rate must be a whole
// number of samples per second; a trailing partial second is padded with the
// channel's last value.
func WriteEDF(path string, rec *Recording) error {
	spr := int(rec.samplingRate)
	if float64(spr) != rec.samplingRate {
		return newRecordingError(fmt.Errorf("sampling rate %g Hz is not a whole number", rec.samplingRate), rec.name)
	}
	if len(rec.channels)*spr*2 > edfMaxRecordBytes {
		return newRecordingError(fmt.Errorf("%d channels at %d Hz exceed the EDF record size", len(rec.channels), spr), rec.name)
	}

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          "X",
		RecordingID:        rec.name,
		StartTime:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DataRecordDuration: time.Second,
		SignalCount:        len(rec.channels),
		Signals:            make([]edf.Signal, len(rec.channels)),
	}
	for i, ch := range rec.channels {
		pmin, pmax := physicalRange(rec.data[i])
		hdr.Signals[i] = edf.Signal{
			Label:             ch,
			TransducerType:    "AgAgCl electrode",
			PhysicalDimension: "uV",
			PhysicalMin:       pmin,
			PhysicalMax:       pmax,
			DigitalMin:        edfDigitalMin,
			DigitalMax:        edfDigitalMax,
			SamplesPerRecord:  spr,
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.FileError(err, path, 0)
	}
	f, err := os.Create(path) //nolint:gosec // G304: path chosen by caller
	if err != nil {
		return errors.FileError(err, path, 0)
	}

	if err := writeEDFRecords(f, hdr, rec, spr); err != nil {
		_ = f.Close()
		return newRecordingError(err, rec.name)
	}
	if err := f.Close(); err != nil {
		return errors.FileError(err, path, 0)
	}
	return nil
}

func writeEDFRecords(w io.WriteSeeker, hdr edf.Header, rec *Recording, spr int) error {
	ew, err := edf.Create(w, hdr)
	if err != nil {
		return err
	}

	n := rec.Len()
	record := make([][]float64, len(rec.channels))
	for i := range record {
		record[i] = make([]float64, spr)
	}

	for start := 0; start < n; start += spr {
		for ch := range rec.channels {
			src := rec.data[ch]
			for j := range spr {
				if start+j < n {
					record[ch][j] = src[start+j]
				} else {
					record[ch][j] = src[n-1]
				}
			}
		}
		if err := ew.WriteRecord(record); err != nil {
			return err
		}
	}

	return ew.Close()
}

// physicalRange returns a symmetric range covering samples, rounded outward so
// the header's 8-character fields can hold it.
func physicalRange(samples []float64) (pmin, pmax float64) {
	peak := 1.0
	for _, v := range samples {
		peak = math.Max(peak, math.Abs(v))
	}
	peak = math.Ceil(peak * 1.01)
	return -peak, peak
}
