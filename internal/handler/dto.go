package handler

import (
	"time"

	"github.com/iliyamo/ekharid/internal/model"
	"github.com/iliyamo/ekharid/internal/service"
)

// Response projections.  Domain types never go to the wire directly.

type userPart struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, FullName: u.FullName, Username: u.Username, Email: u.Email, Role: u.Role}
}

type imagePart struct {
	ImageURL  string `json:"imageUrl"`
	AltText   string `json:"altText"`
	IsPrimary bool   `json:"isPrimary"`
}

type buyerPart struct {
	User         string    `json:"user"`
	Quantity     int       `json:"quantity"`
	PurchaseDate time.Time `json:"purchaseDate"`
}

type productPart struct {
	ID          string      `json:"id"`
	Seller      string      `json:"seller"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Category    string      `json:"category"`
	Stock       int         `json:"stock"`
	Status      string      `json:"status"`
	Images      []imagePart `json:"images"`
	Buyers      []buyerPart `json:"buyer"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func toImageParts(images []model.Image) []imagePart {
	out := make([]imagePart, 0, len(images))
	for _, img := range images {
		out = append(out, imagePart{ImageURL: img.URL, AltText: img.AltText, IsPrimary: img.IsPrimary})
	}
	return out
}

func toProductPart(p *model.Product) productPart {
	buyers := make([]buyerPart, 0, len(p.Buyers))
	for _, r := range p.Buyers {
		buyers = append(buyers, buyerPart{User: r.BuyerID, Quantity: r.Quantity, PurchaseDate: r.PurchaseDate})
	}
	return productPart{
		ID:          p.ID,
		Seller:      p.SellerID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		Status:      p.Status(),
		Images:      toImageParts(p.Images),
		Buyers:      buyers,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductParts(ps []model.Product) []productPart {
	out := make([]productPart, 0, len(ps))
	for i := range ps {
		out = append(out, toProductPart(&ps[i]))
	}
	return out
}

type lineItemPart struct {
	ProductID    string      `json:"productId"`
	Title        string      `json:"title"`
	Price        float64     `json:"price"`
	Images       []imagePart `json:"images"`
	Quantity     int         `json:"quantity"`
	PurchaseDate time.Time   `json:"purchaseDate"`
	Purchased    bool        `json:"purchased"` // false marks the cart line in order history
}

func toLineItemParts(items []service.LineItem) []lineItemPart {
	out := make([]lineItemPart, 0, len(items))
	for _, it := range items {
		out = append(out, lineItemPart{
			ProductID:    it.ProductID,
			Title:        it.Title,
			Price:        it.Price,
			Images:       toImageParts(it.Images),
			Quantity:     it.Quantity,
			PurchaseDate: it.PurchaseDate,
			Purchased:    it.Purchased,
		})
	}
	return out
}

type placedLinePart struct {
	ProductID      string  `json:"productId"`
	Title          string  `json:"title"`
	Quantity       int     `json:"quantity"`
	Price          float64 `json:"price"`
	RemainingStock int     `json:"remainingStock"`
}

func toPlacedLineParts(lines []service.PlacedLine) []placedLinePart {
	out := make([]placedLinePart, 0, len(lines))
	for _, l := range lines {
		out = append(out, placedLinePart(l))
	}
	return out
}
