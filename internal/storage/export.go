package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	RunMetadata
	BusVoltages []BusRecord `json:"bus_voltages"`
	History     []float64   `json:"history"`
}

// ExportJSON writes a stored run as one JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	buses, err := s.LoadBuses(runID)
	if err != nil {
		return err
	}
	history, err := s.LoadHistory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		BusVoltages: buses,
		History:     history,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
