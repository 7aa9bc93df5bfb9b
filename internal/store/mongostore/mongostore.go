// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/store"
)

const (
	usersCollection        = "users"
	projectsCollection     = "projects"
	applicationsCollection = "applications"
)

// Store is a MongoDB backed store.Store
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	users        *mongo.Collection
	projects     *mongo.Collection
	applications *mongo.Collection
	log          *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, pings the server and ensures indexes on dbName
func Connect(ctx context.Context, uri, dbName string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := newStore(client, client.Database(dbName), log)
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Info("connected to mongodb", zap.String("database", dbName))
	return s, nil
}

func newStore(client *mongo.Client, db *mongo.Database, log *zap.Logger) *Store {
	return &Store{
		client:       client,
		db:           db,
		users:        db.Collection(usersCollection),
		projects:     db.Collection(projectsCollection),
		applications: db.Collection(applicationsCollection),
		log:          log,
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	_, err = s.projects.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "seniorId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "acceptedJuniors", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("projects index: %w", err)
	}

	_, err = s.applications.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "projectId", Value: 1}, {Key: "juniorId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "juniorId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("applications index: %w", err)
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	default:
		return err
	}
}

var (
	clockMu sync.Mutex
	last    time.Time
)

// now returns strictly increasing millisecond timestamps, the precision BSON dates keep
func now() time.Time {
	clockMu.Lock()
	defer clockMu.Unlock()

	t := time.Now().UTC().Truncate(time.Millisecond)
	if !t.After(last) {
		t = last.Add(time.Millisecond)
	}
	last = t
	return t
}

// Transaction runs fn directly. Multi-document transactions need a replica set, which a
// standalone deployment does not have, so the project cascade runs as ordered single-document
// writes here.
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Health implements store.Store
func (s *Store) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.client.Ping(ctx, nil); err != nil {
		s.log.Error("mongo down", zap.Error(err))
		return map[string]string{"status": "down", "error": fmt.Sprintf("db down: %v", err)}
	}
	return map[string]string{
		"status":  "up",
		"message": "It's healthy",
		"driver":  "mongo",
	}
}

// Close implements store.Store
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// DropAll drops the users, projects and applications collections
func (s *Store) DropAll(ctx context.Context) error {
	for _, c := range []*mongo.Collection{s.applications, s.projects, s.users} {
		if err := c.Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", c.Name(), err)
		}
	}
	return nil
}

// CreateUser implements store.UserStore
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	t := now()
	user.CreatedAt, user.UpdatedAt = t, t
	_, err := s.users.InsertOne(ctx, toUserDoc(user))
	return translate(err)
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	u := doc.model()
	return &u, nil
}

// GetUserByID implements store.UserStore
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.findUser(ctx, bson.M{"_id": id.String()})
}

// GetUserByEmail implements store.UserStore
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

// SaveUser implements store.UserStore
func (s *Store) SaveUser(ctx context.Context, user *model.User) error {
	existing, err := s.GetUserByID(ctx, user.ID)
	if err != nil {
		return err
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = now()
	_, err = s.users.ReplaceOne(ctx, bson.M{"_id": user.ID.String()}, toUserDoc(user))
	return translate(err)
}

// ListUsersByIDs implements store.UserStore
func (s *Store) ListUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	users := []model.User{}
	if len(ids) == 0 {
		return users, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": keys}})
	if err != nil {
		return nil, translate(err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}
	for _, d := range docs {
		users = append(users, d.model())
	}
	return users, nil
}

// CreateProject implements store.ProjectStore
func (s *Store) CreateProject(ctx context.Context, project *model.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.AcceptedJuniors == nil {
		project.AcceptedJuniors = []string{}
	}
	t := now()
	project.CreatedAt, project.UpdatedAt = t, t
	_, err := s.projects.InsertOne(ctx, toProjectDoc(project))
	return translate(err)
}

// GetProject implements store.ProjectStore
func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var doc projectDoc
	if err := s.projects.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	p := doc.model()
	return &p, nil
}

// ListProjects implements store.ProjectStore
func (s *Store) ListProjects(ctx context.Context, filter store.ProjectFilter) ([]model.Project, error) {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.SeniorID != nil {
		query["seniorId"] = filter.SeniorID.String()
	}
	if filter.AcceptedJunior != nil {
		query["acceptedJuniors"] = filter.AcceptedJunior.String()
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.projects.Find(ctx, query, opts)
	if err != nil {
		return nil, translate(err)
	}
	var docs []projectDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}

	projects := make([]model.Project, 0, len(docs))
	for _, d := range docs {
		projects = append(projects, d.model())
	}
	return projects, nil
}

// SaveProject implements store.ProjectStore. seniorId and acceptedJuniors are not overwritten.
func (s *Store) SaveProject(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = now()
	doc := toProjectDoc(project)
	res, err := s.projects.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": bson.M{
		"title":          doc.Title,
		"description":    doc.Description,
		"requiredSkills": doc.RequiredSkills,
		"duration":       doc.Duration,
		"difficulty":     doc.Difficulty,
		"status":         doc.Status,
		"updatedAt":      doc.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AddAcceptedJunior implements store.ProjectStore with $addToSet
func (s *Store) AddAcceptedJunior(ctx context.Context, projectID, juniorID uuid.UUID) error {
	res, err := s.projects.UpdateOne(ctx,
		bson.M{"_id": projectID.String()},
		bson.M{
			"$addToSet": bson.M{"acceptedJuniors": juniorID.String()},
			"$set":      bson.M{"updatedAt": now()},
		},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteProject implements store.ProjectStore
func (s *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	res, err := s.projects.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateApplication implements store.ApplicationStore
func (s *Store) CreateApplication(ctx context.Context, app *model.Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	t := now()
	app.CreatedAt, app.UpdatedAt = t, t
	app.AppliedAt = app.AppliedAt.UTC().Truncate(time.Millisecond)
	_, err := s.applications.InsertOne(ctx, toApplicationDoc(app))
	return translate(err)
}

func (s *Store) findApplication(ctx context.Context, filter bson.M) (*model.Application, error) {
	var doc applicationDoc
	if err := s.applications.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	a := doc.model()
	return &a, nil
}

// GetApplication implements store.ApplicationStore
func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	return s.findApplication(ctx, bson.M{"_id": id.String()})
}

// FindApplication implements store.ApplicationStore
func (s *Store) FindApplication(ctx context.Context, projectID, juniorID uuid.UUID) (*model.Application, error) {
	return s.findApplication(ctx, bson.M{"projectId": projectID.String(), "juniorId": juniorID.String()})
}

// ListApplications implements store.ApplicationStore
func (s *Store) ListApplications(ctx context.Context, filter store.ApplicationFilter) ([]model.Application, error) {
	query := bson.M{}
	if filter.ProjectID != nil {
		query["projectId"] = filter.ProjectID.String()
	}
	if filter.JuniorID != nil {
		query["juniorId"] = filter.JuniorID.String()
	}

	opts := options.Find().SetSort(bson.D{{Key: "appliedAt", Value: -1}, {Key: "createdAt", Value: -1}})
	cur, err := s.applications.Find(ctx, query, opts)
	if err != nil {
		return nil, translate(err)
	}
	var docs []applicationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}

	apps := make([]model.Application, 0, len(docs))
	for _, d := range docs {
		apps = append(apps, d.model())
	}
	return apps, nil
}

// UpdateApplicationStatus implements store.ApplicationStore
func (s *Store) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := s.applications.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"status": status, "updatedAt": now()}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteApplication implements store.ApplicationStore
func (s *Store) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	res, err := s.applications.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteApplicationsByProject implements store.ApplicationStore
func (s *Store) DeleteApplicationsByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	res, err := s.applications.DeleteMany(ctx, bson.M{"projectId": projectID.String()})
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}
