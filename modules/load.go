package modules

import (
	"github.com/iota-uz/mes/modules/mes"
	"github.com/iota-uz/mes/pkg/application"
)

var BuiltInModules = []application.Module{
	mes.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range append(BuiltInModules, externalModules...) {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
