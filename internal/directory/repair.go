package directory

import (
	"context"

	"github.com/bananalabs-oss/clans/internal/models"
	"go.uber.org/zap"
)

// RepairOwners fixes clans whose ownership does not match their members:
// the owner must be a member holding the top role, and nobody else may hold
// it. Clans without any member are dissolved. It returns how many clans
// were changed.
func (d *Directory) RepairOwners(ctx context.Context) (int, error) {
	repaired := 0
	for _, clan := range d.Clans.All() {
		members, err := d.Members.List(ctx, clan.ID)
		if err != nil {
			return repaired, err
		}

		if len(members) == 0 {
			d.log.Warn("dissolving clan without members", zap.String("clan_id", clan.ID.String()))
			if _, err := d.Clans.Delete(ctx, clan.ID); err != nil {
				return repaired, err
			}
			repaired++
			continue
		}

		tops := 0
		ownerIsTop := false
		ownerPresent := false
		for _, m := range members {
			if m.Role == models.TopRole {
				tops++
			}
			if m.PlayerID == clan.OwnerID {
				ownerPresent = true
				ownerIsTop = m.Role == models.TopRole
			}
		}
		if ownerIsTop && tops == 1 {
			continue
		}

		// Members are ranked highest role first, then by tenure.
		heir := members[0].PlayerID
		if ownerPresent {
			heir = clan.OwnerID
		}

		d.log.Warn("repairing clan ownership",
			zap.String("clan_id", clan.ID.String()),
			zap.String("owner_id", heir.String()),
		)
		if _, err := d.Members.TransferOwnership(ctx, clan.ID, heir); err != nil {
			return repaired, err
		}
		repaired++
	}
	return repaired, nil
}
