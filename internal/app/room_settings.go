package app

import (
	"context"
	"fmt"

	"github.com/dkeye/watchroom/internal/domain"
)

func (s *RoomService) SetGlobal(ctx context.Context, actor string, setting domain.GlobalSetting, on bool) error {
	return s.mutate(ctx, "global_toggle", actor, ActGlobalToggle, func(next *domain.Room, who domain.User) ([]string, error) {
		if err := next.Global.Set(setting, on); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s turned %s %s for everyone.", who.Username, setting, onOff(on))}, nil
	})
}

func (s *RoomService) SetScreenSharing(ctx context.Context, actor string, allow bool) error {
	return s.mutate(ctx, "share_toggle", actor, ActShareToggle, func(next *domain.Room, who domain.User) ([]string, error) {
		next.ScreenSharingAllowed = allow
		state := "DISABLED"
		if allow {
			state = "ENABLED"
		}
		return []string{fmt.Sprintf("Screen-sharing %s by %s.", state, who.Username)}, nil
	})
}
