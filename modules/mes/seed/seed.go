package seed

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence"
	"github.com/iota-uz/mes/modules/mes/services"
	"github.com/iota-uz/mes/pkg/application"
	"github.com/iota-uz/mes/pkg/composables"
)

// DowntimeReasons installs the standard reason catalog. Idempotent.
func DowntimeReasons(ctx context.Context, app application.Application) error {
	reasons := []*facts.DowntimeReason{
		{Code: "PM", Description: "Planned maintenance", Planned: true},
		{Code: "CHG", Description: "Changeover / setup", Planned: true},
		{Code: "BRK", Description: "Equipment breakdown", AffectsAvailability: true, Failure: true},
		{Code: "JAM", Description: "Material jam", AffectsAvailability: true, Failure: true},
		{Code: "NOMAT", Description: "Material starvation", AffectsAvailability: true},
		{Code: "NOOP", Description: "No operator available", AffectsAvailability: true},
		{Code: "QHOLD", Description: "Quality hold", AffectsQuality: true},
		{Code: "SLOW", Description: "Reduced speed running", AffectsPerformance: true},
	}

	repo := persistence.NewDowntimeRepository()
	ctx = composables.WithPool(ctx, app.Pool())
	return composables.InTx(ctx, func(txCtx context.Context) error {
		for _, reason := range reasons {
			if err := repo.CreateReason(txCtx, reason); err != nil {
				return err
			}
		}
		return nil
	})
}

// DemoPlant builds a small but complete tree: one enterprise, one site, two
// areas, work centers and equipment with standard cycle times. Skipped when
// an enterprise node already exists.
func DemoPlant(ctx context.Context, app application.Application) error {
	svc := app.Service(services.HierarchyService{}).(*services.HierarchyService)
	ctx = composables.WithPool(ctx, app.Pool())

	existing, err := svc.List(ctx, &hierarchy.FindParams{Level: hierarchy.LevelEnterprise})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	enterprise := &hierarchy.Node{Level: hierarchy.LevelEnterprise, Code: "ACME", Name: "Acme Manufacturing"}
	if err := svc.CreateNode(ctx, enterprise); err != nil {
		return err
	}
	site := &hierarchy.Node{Level: hierarchy.LevelSite, ParentID: &enterprise.ID, Code: "TAS", Name: "Tashkent Plant"}
	if err := svc.CreateNode(ctx, site); err != nil {
		return err
	}

	type equipmentSpec struct {
		code      string
		name      string
		cycleTime string
	}
	areas := []struct {
		code        string
		name        string
		workCenters []struct {
			code      string
			name      string
			equipment []equipmentSpec
		}
	}{
		{
			code: "STAMP", name: "Stamping",
			workCenters: []struct {
				code      string
				name      string
				equipment []equipmentSpec
			}{
				{code: "STAMP-WC1", name: "Press Line 1", equipment: []equipmentSpec{
					{code: "PRESS-01", name: "Press 01", cycleTime: "2.5"},
					{code: "PRESS-02", name: "Press 02", cycleTime: "2.5"},
				}},
			},
		},
		{
			code: "ASSY", name: "Assembly",
			workCenters: []struct {
				code      string
				name      string
				equipment []equipmentSpec
			}{
				{code: "ASSY-WC1", name: "Assembly Cell 1", equipment: []equipmentSpec{
					{code: "ROBOT-01", name: "Robot Cell 01", cycleTime: "12"},
					{code: "ROBOT-02", name: "Robot Cell 02", cycleTime: "12"},
				}},
				{code: "ASSY-WC2", name: "Final Assembly", equipment: []equipmentSpec{
					{code: "LINE-01", name: "Line 01", cycleTime: "45"},
				}},
			},
		},
	}

	for _, a := range areas {
		area := &hierarchy.Node{Level: hierarchy.LevelArea, ParentID: &site.ID, Code: a.code, Name: a.name}
		if err := svc.CreateNode(ctx, area); err != nil {
			return err
		}
		for _, wc := range a.workCenters {
			workCenter := &hierarchy.Node{Level: hierarchy.LevelWorkCenter, ParentID: &area.ID, Code: wc.code, Name: wc.name}
			if err := svc.CreateNode(ctx, workCenter); err != nil {
				return err
			}
			for _, e := range wc.equipment {
				ct, err := decimal.NewFromString(e.cycleTime)
				if err != nil {
					return err
				}
				node := &hierarchy.Node{
					Level:                    hierarchy.LevelEquipment,
					ParentID:                 &workCenter.ID,
					Code:                     e.code,
					Name:                     e.name,
					StandardCycleTimeSeconds: &ct,
				}
				if err := svc.CreateNode(ctx, node); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
