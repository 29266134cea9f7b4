package session

import (
	"encoding/json"
	"fmt"
	"time"
)

type sessionJSON struct {
	UserID    int64           `json:"user_id"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarshalJSON tags the state payload with its kind so it can be restored.
func (s Session) MarshalJSON() ([]byte, error) {
	st := s.Current()
	out := sessionJSON{UserID: s.UserID, Kind: st.Kind(), UpdatedAt: s.UpdatedAt}
	if _, idle := st.(Idle); !idle {
		data, err := json.Marshal(st)
		if err != nil {
			return nil, err
		}
		out.Data = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the state variant named by kind.
func (s *Session) UnmarshalJSON(b []byte) error {
	var in sessionJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	var (
		st  State
		err error
	)
	switch in.Kind {
	case "", KindIdle:
		st = Idle{}
	case KindAwaitingPhone:
		st, err = decodeState[AwaitingPhone](in.Data)
	case KindAwaitingOTP:
		st, err = decodeState[AwaitingOTP](in.Data)
	case KindAuthenticated:
		st, err = decodeState[Authenticated](in.Data)
	case KindBeneficiaryDetail:
		st, err = decodeState[BeneficiaryDetail](in.Data)
	default:
		return fmt.Errorf("session: unknown state kind %q", in.Kind)
	}
	if err != nil {
		return fmt.Errorf("session: decode %s: %w", in.Kind, err)
	}

	s.UserID = in.UserID
	s.State = st
	s.UpdatedAt = in.UpdatedAt
	return nil
}

func decodeState[T State](data json.RawMessage) (State, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
