package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/domain/shared/apperr"
)

// IdempotentCommand is implemented by commands a client may safely retry, such
// as booking creation and wallet payment. A successful result is stored under
// the client key and replayed for later dispatches by the same actor.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // pointer to the handler result type
}

type IdempotencyRecord struct {
	Key         string
	Fingerprint string
	Payload     []byte
	OccurredAt  time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var (
	ErrIdempotencyKeyReused = apperr.New(apperr.KindConflict, "idempotency key was used for a different request")

	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")
)

func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := scopedKey(ctx, idCmd)
			fingerprint, err := fingerprintOf(cmd)
			if err != nil {
				return nil, err
			}

			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, apperr.Dependency("idempotency lookup", err)
			}
			if found {
				if rec.Fingerprint != "" && rec.Fingerprint != fingerprint {
					return nil, ErrIdempotencyKeyReused
				}
				return replay(codec, rec, idCmd)
			}

			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				// failures are not stored so the client can retry with the same key
				return nil, err
			}
			record := IdempotencyRecord{Key: key, Fingerprint: fingerprint, OccurredAt: time.Now().UTC()}
			if result != nil {
				if record.Payload, err = codec.Encode(result); err != nil {
					return nil, err
				}
			}
			if err := store.Save(ctx, record); err != nil {
				return nil, apperr.Dependency("idempotency save", err)
			}
			return result, nil
		})
	}
}

// scopedKey keeps one guest's key from replaying another guest's result.
func scopedKey(ctx context.Context, cmd IdempotentCommand) string {
	key := cmd.Key() + ":"
	if actor, ok := ActorFromContext(ctx); ok {
		key += actor.ID + ":"
	}
	return key + cmd.IdempotencyKey()
}

func fingerprintOf(cmd commands.Command) (string, error) {
	raw, err := json.Marshal(cmd)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func replay(codec ResultCodec, rec IdempotencyRecord, cmd IdempotentCommand) (any, error) {
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return proto, nil
}
