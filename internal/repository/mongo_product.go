package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/ekharid/internal/model"
)

type imageDoc struct {
	ImageURL  string `bson:"imageUrl"`
	AltText   string `bson:"altText"`
	IsPrimary bool   `bson:"isPrimary"`
}

type buyerDoc struct {
	User         primitive.ObjectID `bson:"user"`
	Quantity     int                `bson:"quantity"`
	PurchaseDate time.Time          `bson:"purchaseDate"`
	Purchased    bool               `bson:"purchased,omitempty"`
}

// productDoc mirrors a document of the products collection.  Reservations
// live in the embedded buyer array; status is denormalized from stock and
// hidden on every write so it can be filtered on by other tools.
type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Seller      primitive.ObjectID `bson:"seller"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Category    string             `bson:"category"`
	Stock       int                `bson:"stock"`
	Hidden      bool               `bson:"hidden"`
	Status      string             `bson:"status"`
	Images      []imageDoc         `bson:"images"`
	Buyer       []buyerDoc         `bson:"buyer"`
	Version     int64              `bson:"version"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d productDoc) toModel() model.Product {
	p := model.Product{
		ID:          d.ID.Hex(),
		SellerID:    d.Seller.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		Stock:       d.Stock,
		Hidden:      d.Hidden,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, img := range d.Images {
		p.Images = append(p.Images, model.Image{URL: img.ImageURL, AltText: img.AltText, IsPrimary: img.IsPrimary})
	}
	for _, b := range d.Buyer {
		p.Buyers = append(p.Buyers, model.Reservation{BuyerID: b.User.Hex(), Quantity: b.Quantity, PurchaseDate: b.PurchaseDate, Purchased: b.Purchased})
	}
	return p
}

func imageDocs(images []model.Image) []imageDoc {
	out := make([]imageDoc, 0, len(images))
	for _, img := range images {
		out = append(out, imageDoc{ImageURL: img.URL, AltText: img.AltText, IsPrimary: img.IsPrimary})
	}
	return out
}

func buyerDocs(buyers []model.Reservation) ([]buyerDoc, error) {
	out := make([]buyerDoc, 0, len(buyers))
	for _, b := range buyers {
		oid, err := primitive.ObjectIDFromHex(b.BuyerID)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed buyer id %q", model.ErrValidation, b.BuyerID)
		}
		out = append(out, buyerDoc{User: oid, Quantity: b.Quantity, PurchaseDate: b.PurchaseDate, Purchased: b.Purchased})
	}
	return out, nil
}

// MongoProductRepo stores products in the products collection.
type MongoProductRepo struct{ coll *mongo.Collection }

// NewMongoProductRepo binds the repo to db.products.
func NewMongoProductRepo(db *mongo.Database) *MongoProductRepo {
	return &MongoProductRepo{coll: db.Collection("products")}
}

// InsertProduct stores p, assigning ID, Version and timestamps.
func (r *MongoProductRepo) InsertProduct(ctx context.Context, p *model.Product) error {
	seller, err := primitive.ObjectIDFromHex(p.SellerID)
	if err != nil {
		return ErrUserNotFound
	}
	buyers, err := buyerDocs(p.Buyers)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	doc := productDoc{
		Seller:      seller,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		Hidden:      p.Hidden,
		Status:      p.Status(),
		Images:      imageDocs(p.Images),
		Buyer:       buyers,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	p.Version = 1
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// ProductByID fetches a product by hex id.
func (r *MongoProductRepo) ProductByID(ctx context.Context, id string) (*model.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	var d productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	p := d.toModel()
	return &p, nil
}

// ListProducts returns matching products in insertion order.  A malformed
// seller or buyer id matches nothing.
func (r *MongoProductRepo) ListProducts(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	filter := bson.M{}
	if q.SellerID != "" {
		oid, err := primitive.ObjectIDFromHex(q.SellerID)
		if err != nil {
			return []model.Product{}, nil
		}
		filter["seller"] = oid
	}
	if q.BuyerID != "" {
		oid, err := primitive.ObjectIDFromHex(q.BuyerID)
		if err != nil {
			return []model.Product{}, nil
		}
		filter["buyer.user"] = oid
	}
	if q.Text != "" {
		filter["$or"] = bson.A{
			bson.M{"title": q.Text},
			bson.M{"description": q.Text},
			bson.M{"category": q.Text},
		}
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

// SaveProduct writes every mutable field of p guarded by the version
// filter, so a concurrent writer that got there first makes this call
// match nothing and return ErrStale.
func (r *MongoProductRepo) SaveProduct(ctx context.Context, p *model.Product, expectedVersion int64) error {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return ErrProductNotFound
	}
	buyers, err := buyerDocs(p.Buyers)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"title":       p.Title,
			"description": p.Description,
			"price":       p.Price,
			"category":    p.Category,
			"stock":       p.Stock,
			"hidden":      p.Hidden,
			"status":      p.Status(),
			"images":      imageDocs(p.Images),
			"buyer":       buyers,
			"updatedAt":   now,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid, "version": expectedVersion}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrProductNotFound
		}
		return ErrStale
	}
	p.Version = expectedVersion + 1
	p.UpdatedAt = now
	return nil
}

// DeleteProduct hard-deletes a product.
func (r *MongoProductRepo) DeleteProduct(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrProductNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

// MongoStore combines the user and product repos over one database.
type MongoStore struct {
	*MongoUserRepo
	*MongoProductRepo
}

// NewMongoStore returns a Store backed by db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{MongoUserRepo: NewMongoUserRepo(db), MongoProductRepo: NewMongoProductRepo(db)}
}
