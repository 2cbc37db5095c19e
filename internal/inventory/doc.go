// Package inventory builds immutable bin-occupancy snapshots from mapped
// workbook rows and answers count, filter and group-by questions over them.
//
// Every row of a Snapshot carries exactly one model.Status, so the sum of
// Snapshot.Count over model.AllStatuses always equals Snapshot.Len. Rows
// that could not be mapped are kept out of the row set and reported by
// Snapshot.Skipped instead.
package inventory
