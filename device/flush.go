package device

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/outofforest/minipos/types"
)

// Flush appends every live page to the backing log and returns all the occupied slots
// to the free list in write order.
//
// A slot is persisted only if its LPN still maps to it. Slots superseded by a later write
// of the same LPN are reclaimed without a record.
// If the log fails, the pool is left untouched so flush may be retried.
func (d *Device) Flush() error {
	if len(d.occupied) == 0 {
		return nil
	}

	pages := make([]types.Page, 0, len(d.occupied))
	for _, slot := range d.occupied {
		lpn := d.tags[slot]
		if mapped, exists := d.lpnMap[lpn]; !exists || mapped != slot {
			continue
		}
		pages = append(pages, types.Page{
			LPN:  lpn,
			Slot: slot,
			Data: d.slot(slot),
		})
	}

	if err := d.log.Append(pages); err != nil {
		d.logger.WithError(err).WithField("pages", len(pages)).Error("Flush failed")
		return errors.Wrapf(err, "flushing device %s", d.config.Name)
	}

	for _, slot := range d.occupied {
		lpn := d.tags[slot]
		if mapped, exists := d.lpnMap[lpn]; exists && mapped == slot {
			delete(d.lpnMap, lpn)
		}
		d.pushFree(slot)
	}

	reclaimed := len(d.occupied)
	d.occupied = d.occupied[:0]
	d.stats.Flushes++
	d.stats.FlushedRecords += uint64(len(pages))

	d.logger.WithFields(logrus.Fields{
		"records":   len(pages),
		"reclaimed": reclaimed,
		"free":      d.freeLen,
	}).Info("Pool flushed")
	return nil
}
