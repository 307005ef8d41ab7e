package settings

import (
	"context"
	"fmt"

	"github.com/acapretti/bogofree/pkg/hooks"
)

// Group is the settings group the option keys are registered under.
const Group = "bogo_settings_group"

// Register declares the option keys and wipes them on uninstall.
func Register(bus *hooks.Bus, repo Repository) {
	bus.Subscribe(hooks.RegisterSettings, hooks.StageDefault, "settings.keys", func(_ context.Context, payload any) error {
		p, ok := payload.(*hooks.SettingsPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T", payload)
		}
		p.Register(Group, Keys...)
		return nil
	})
	bus.Subscribe(hooks.Uninstall, hooks.StageDefault, "settings.clear", func(ctx context.Context, _ any) error {
		return repo.Clear(ctx)
	})
}
