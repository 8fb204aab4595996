package sweep

import (
	"sync"

	"github.com/klauspost/oui"
)

var (
	vendorDB     oui.OuiDB
	vendorDBOnce sync.Once
)

// vendorName maps a MAC address to its IEEE-registered manufacturer using
// the library's embedded OUI database. Returns "" for unknown prefixes or
// when the database cannot be loaded.
func vendorName(mac string) string {
	vendorDBOnce.Do(func() {
		db, err := oui.OpenStaticFile("")
		if err != nil {
			return
		}
		vendorDB = db
	})
	if vendorDB == nil {
		return ""
	}

	entry, err := vendorDB.Query(mac)
	if err != nil || entry == nil {
		return ""
	}
	return entry.Manufacturer
}
