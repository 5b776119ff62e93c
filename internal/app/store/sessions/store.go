// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is where session records live.
const Collection = "sessions"

// Record is one persisted session. The cookie only carries the signed _id;
// everything else stays server side. expires_at has a TTL index so MongoDB
// removes records on its own once they lapse.
type Record struct {
	ID        string                 `bson:"_id"`
	Data      map[string]interface{} `bson:"data"`
	UserID    string                 `bson:"user_id,omitempty"`
	CreatedAt time.Time              `bson:"created_at"`
	UpdatedAt time.Time              `bson:"updated_at"`
	ExpiresAt time.Time              `bson:"expires_at"`
}

// UserIDKey is the session value copied into Record.UserID so records can
// be found by user.
const UserIDKey = "id"

// Store is a gorilla/sessions Store persisted in MongoDB.
type Store struct {
	c       *mongo.Collection
	Codecs  []securecookie.Codec
	Options *gsessions.Options
	now     func() time.Time
}

// New creates a Store. keyPairs are passed to securecookie the same way the
// gorilla cookie store takes them: authentication key, then optional
// encryption key, repeated for rotation.
func New(db *mongo.Database, keyPairs ...[]byte) *Store {
	s := &Store{
		c:      db.Collection(Collection),
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &gsessions.Options{
			Path:   "/",
			MaxAge: 86400 * 14,
		},
		now: time.Now,
	}
	s.MaxAge(s.Options.MaxAge)
	return s
}

// MaxAge sets the lifetime of both the cookie and the stored record.
func (s *Store) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, codec := range s.Codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

// SetClock replaces the time source used for record timestamps and expiry.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns the session for name, cached per request.
func (s *Store) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New returns the session named by the request cookie, or a fresh one.
// A cookie that fails to verify or names a missing or expired record yields
// a new session; the verification error is returned alongside it.
func (s *Store) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return session, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, err := s.Load(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return session, nil
	}
	if err != nil {
		return session, err
	}

	session.ID = rec.ID
	for k, v := range rec.Data {
		session.Values[k] = v
	}
	session.IsNew = false
	return session, nil
}

// Save persists the session and writes its cookie. A negative MaxAge
// deletes the record and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.Delete(ctx, session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	maxAge := session.Options.MaxAge
	if maxAge == 0 {
		maxAge = s.Options.MaxAge
	}
	if err := s.upsert(ctx, session, time.Duration(maxAge)*time.Second); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Load returns the unexpired record with the given id, or
// mongo.ErrNoDocuments. The TTL monitor runs about once a minute, so expiry
// is checked here too.
func (s *Store) Load(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.c.FindOne(ctx, bson.M{
		"_id":        id,
		"expires_at": bson.M{"$gt": s.now().UTC()},
	}).Decode(&rec)
	return rec, err
}

// Delete removes the record with the given id. Deleting a missing record is
// not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteByUser removes every session belonging to userID and returns how
// many were removed.
func (s *Store) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) upsert(ctx context.Context, session *gsessions.Session, ttl time.Duration) error {
	now := s.now().UTC()

	data := make(map[string]interface{}, len(session.Values))
	for k, v := range session.Values {
		if key, ok := k.(string); ok {
			data[key] = v
		}
	}
	userID, _ := session.Values[UserIDKey].(string)

	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": session.ID},
		bson.M{
			"$set": bson.M{
				"data":       data,
				"user_id":    userID,
				"updated_at": now,
				"expires_at": now.Add(ttl),
			},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
