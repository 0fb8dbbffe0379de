// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteCSV writes the observation set as two-column CSV with a
// "time,value" header. The noise scale is experiment configuration, not
// data, and is deliberately not embedded in the file.
func (o *Observations) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "value"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range o.Times {
		rec := []string{
			strconv.FormatFloat(o.Times[i], 'g', -1, 64),
			strconv.FormatFloat(o.Values[i], 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the observation set to path, creating or
// truncating it.
func (o *Observations) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := o.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV parses a two-column time,value CSV (header required) into an
// observation set with the given noise scale.
func ReadCSV(r io.Reader, noise float64) (*Observations, error) {
	if noise <= 0 {
		return nil, fmt.Errorf("dataset: noise must be positive, got %g", noise)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if header[0] != "time" || header[1] != "value" {
		return nil, fmt.Errorf("dataset: unexpected csv header %v, want [time value]", header)
	}

	obs := &Observations{Noise: noise}
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse time in row %d: %w", row, err)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse value in row %d: %w", row, err)
		}
		obs.Times = append(obs.Times, t)
		obs.Values = append(obs.Values, v)
	}
	if obs.Len() == 0 {
		return nil, fmt.Errorf("dataset: csv contains no observations")
	}
	return obs, nil
}
