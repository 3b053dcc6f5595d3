package local

import "context"

// TokenStore persists the remote session token in the local database so a
// remote session survives restarts.
type TokenStore struct {
	kv *KV
}

func (b *Backend) TokenStore() *TokenStore {
	return &TokenStore{kv: b.kv}
}

// LoadToken returns "" when no token is stored.
func (s *TokenStore) LoadToken(ctx context.Context) (string, error) {
	v, err := s.kv.Get(ctx, keyRemoteSession)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *TokenStore) SaveToken(ctx context.Context, token string) error {
	return s.kv.Set(ctx, keyRemoteSession, []byte(token))
}

func (s *TokenStore) ClearToken(ctx context.Context) error {
	return s.kv.Delete(ctx, keyRemoteSession)
}
