// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/FarminAI/pkg/ux"
	"github.com/AleutianAI/FarminAI/services/records"
	"github.com/spf13/cobra"
)

// openRecords opens the record table under storage.dir.
func openRecords() (*records.RecordStore, error) {
	if err := cfg.Storage.EnsureDir(); err != nil {
		return nil, err
	}
	return records.OpenRecordStore(records.RecordConfig{Path: cfg.Storage.RecordsPath()})
}

func runRecordsAdd(cmd *cobra.Command, args []string) error {
	store, err := openRecords()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.AddRecord(cmd.Context(), args[0], strings.Join(args[1:], " "), recordDate)
	if err != nil {
		return err
	}
	ux.Success(fmt.Sprintf("Saved %s record #%d for %s", rec.Type, rec.ID, rec.Date))
	return nil
}

func runRecordsList(cmd *cobra.Command, _ []string) error {
	store, err := openRecords()
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.ListRecords(cmd.Context())
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		ux.Muted("No records yet. Add one with: farminai records add dairy \"12 litres\"")
		return nil
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{strconv.FormatInt(r.ID, 10), string(r.Type), r.Date, r.Detail})
	}
	ux.Table([]string{"ID", "Type", "Date", "Detail"}, rows)
	return nil
}
