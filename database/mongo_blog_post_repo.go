package database

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/Amar2502/portfolio-backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const blogsCollection = "blogs"

type postDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Content     string             `bson:"content"`
	Excerpt     string             `bson:"excerpt"`
	Tags        []string           `bson:"tags"`
	CoverImage  string             `bson:"coverImage,omitempty"`
	Date        time.Time          `bson:"date"`
	LastUpdated *time.Time         `bson:"lastUpdated,omitempty"`
	Views       int64              `bson:"views"`
}

func (d postDocument) toModel() models.Post {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Post{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Content:     d.Content,
		Excerpt:     d.Excerpt,
		Tags:        tags,
		CoverImage:  d.CoverImage,
		Date:        d.Date,
		LastUpdated: d.LastUpdated,
		Views:       d.Views,
	}
}

// MongoBlogPostRepo stores posts as documents in the blogs collection.
type MongoBlogPostRepo struct {
	handle      *Handle[*mongo.Collection]
	listTimeout time.Duration
}

func NewMongoBlogPostRepo(handle *Handle[*mongo.Collection], listTimeout time.Duration) *MongoBlogPostRepo {
	if listTimeout <= 0 {
		listTimeout = DefaultListTimeout
	}
	return &MongoBlogPostRepo{handle: handle, listTimeout: listTimeout}
}

// OpenMongoCollection connects, pings the primary and makes sure the date index exists.
func OpenMongoCollection(uri, dbName string) OpenFunc[*mongo.Collection] {
	return func(ctx context.Context) (*mongo.Collection, error) {
		if uri == "" {
			return nil, errs.NewConnectionError(errs.NewEnvironmentVariableError("MONGO_URI"))
		}

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return nil, errs.NewConnectionError(err)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, errs.NewConnectionError(err)
		}

		collection := client.Database(dbName).Collection(blogsCollection)
		_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}},
		})
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, errs.NewConnectionError(err)
		}
		return collection, nil
	}
}

func (r *MongoBlogPostRepo) Insert(ctx context.Context, post *models.Post) (string, error) {
	collection, err := r.handle.Get(ctx)
	if err != nil {
		return "", err
	}

	doc := postDocument{
		Title:      post.Title,
		Content:    post.Content,
		Excerpt:    post.Excerpt,
		Tags:       post.Tags,
		CoverImage: post.CoverImage,
		Date:       post.Date,
		Views:      post.Views,
	}
	res, err := collection.InsertOne(ctx, doc)
	if err != nil {
		return "", errs.NewPersistenceError("insert", postEntity, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errs.NewPersistenceError("insert", postEntity, errors.New("insert returned no object id"))
	}
	post.ID = oid.Hex()
	return post.ID, nil
}

func (r *MongoBlogPostRepo) ListPage(ctx context.Context, query ListQuery) (PostPage, error) {
	collection, err := r.handle.Get(ctx)
	if err != nil {
		return PostPage{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.listTimeout)
	defer cancel()

	filter := bson.M{}
	if query.Tag != "" {
		filter["tags"] = query.Tag
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": pattern}},
			bson.M{"excerpt": bson.M{"$regex": pattern}},
			bson.M{"tags": bson.M{"$regex": pattern}},
		}
	}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return PostPage{}, r.listError(ctx, err)
	}

	direction := -1
	if query.Ascending {
		direction = 1
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "date", Value: direction}, {Key: "_id", Value: direction}})
	if query.Limit > 0 {
		findOpts.SetLimit(int64(query.Limit))
		if query.Offset > 0 {
			findOpts.SetSkip(int64(query.Offset))
		}
	}

	cursor, err := collection.Find(ctx, filter, findOpts)
	if err != nil {
		return PostPage{}, r.listError(ctx, err)
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return PostPage{}, r.listError(ctx, err)
	}

	page := PostPage{Items: make([]models.Post, 0, len(docs)), Total: total}
	for _, doc := range docs {
		page.Items = append(page.Items, doc.toModel())
	}
	return page, nil
}

func (r *MongoBlogPostRepo) listError(ctx context.Context, err error) error {
	if mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errs.NewDatabaseTimeoutError("list posts", r.listTimeout)
	}
	return errs.NewDatabaseError("list", "posts", err)
}

// GetByIDAndIncrementViews is a single findOneAndUpdate with $inc, returning the updated document.
func (r *MongoBlogPostRepo) GetByIDAndIncrementViews(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.NewInvalidIDError(postEntity, id)
	}

	collection, err := r.handle.Get(ctx)
	if err != nil {
		return nil, err
	}

	var doc postDocument
	err = collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NewNotFound(postEntity)
	}
	if err != nil {
		return nil, errs.NewDatabaseError("get", postEntity, err)
	}

	post := doc.toModel()
	return &post, nil
}

func (r *MongoBlogPostRepo) Update(ctx context.Context, id string, update models.PostUpdate) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.NewInvalidIDError(postEntity, id)
	}

	collection, err := r.handle.Get(ctx)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"title":       update.Title,
		"content":     update.Content,
		"excerpt":     update.Excerpt,
		"tags":        update.Tags,
		"lastUpdated": update.LastUpdated,
	}
	change := bson.M{"$set": set}
	if update.CoverImage != "" {
		set["coverImage"] = update.CoverImage
	} else {
		change["$unset"] = bson.M{"coverImage": ""}
	}

	var doc postDocument
	err = collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		change,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NewNotFound(postEntity)
	}
	if err != nil {
		return nil, errs.NewPersistenceError("update", postEntity, err)
	}

	post := doc.toModel()
	return &post, nil
}

func (r *MongoBlogPostRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.NewInvalidIDError(postEntity, id)
	}

	collection, err := r.handle.Get(ctx)
	if err != nil {
		return err
	}

	res, err := collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errs.NewPersistenceError("delete", postEntity, err)
	}
	if res.DeletedCount == 0 {
		return errs.NewNotFound(postEntity)
	}
	return nil
}

// ListTags groups by (post, tag) first so a tag repeated inside one post counts once.
func (r *MongoBlogPostRepo) ListTags(ctx context.Context) ([]models.TagCount, error) {
	collection, err := r.handle.Get(ctx)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{"_id": bson.M{"post": "$_id", "tag": "$tags"}}}},
		{{Key: "$group", Value: bson.M{"_id": "$_id.tag", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "tags", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Tag   string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errs.NewDatabaseError("list", "tags", err)
	}

	result := make([]models.TagCount, 0, len(rows))
	for _, row := range rows {
		result = append(result, models.TagCount{Tag: row.Tag, Count: row.Count})
	}
	sortTagCounts(result)
	return result, nil
}
