package catalog

import (
	"time"

	"github.com/niksmo/wheels-shop/internal/core/domain"
)

type (
	document struct {
		Products []product `yaml:"products"`
		Reviews  []review  `yaml:"reviews"`
		Orders   []order   `yaml:"orders"`
	}

	product struct {
		ID          string    `yaml:"id"`
		Name        string    `yaml:"name"`
		Brand       string    `yaml:"brand"`
		Model       string    `yaml:"model"`
		Description string    `yaml:"description"`
		Price       int       `yaml:"price"`
		Images      []string  `yaml:"images"`
		Specs       specs     `yaml:"specs"`
		Variants    []variant `yaml:"variants"`
	}

	specs struct {
		Diameter []string `yaml:"diameter"`
		Width    string   `yaml:"width"`
		PCD      string   `yaml:"pcd"`
		ET       []string `yaml:"et"`
		DIA      string   `yaml:"dia"`
	}

	variant struct {
		ID       string `yaml:"id"`
		Diameter string `yaml:"diameter"`
		Width    string `yaml:"width"`
		ET       string `yaml:"et"`
		Price    int    `yaml:"price"`
		Stock    int    `yaml:"stock"`
	}

	review struct {
		ID        int       `yaml:"id"`
		ProductID string    `yaml:"product_id"`
		Model     string    `yaml:"model"`
		Author    string    `yaml:"author"`
		Rating    int       `yaml:"rating"`
		Date      time.Time `yaml:"date"`
		Text      string    `yaml:"text"`
		Likes     int       `yaml:"likes"`
		Dislikes  int       `yaml:"dislikes"`
		Images    []string  `yaml:"images"`
		Avatar    string    `yaml:"avatar"`
	}

	order struct {
		Number    string    `yaml:"number"`
		ProductID string    `yaml:"product_id"`
		Model     string    `yaml:"model"`
		Name      string    `yaml:"name"`
		Date      time.Time `yaml:"date"`
	}
)

func (p product) toDomain() (dp domain.Product) {
	dp.ID = p.ID
	dp.Name = p.Name
	dp.Brand = p.Brand
	dp.Model = p.Model
	dp.Description = p.Description
	dp.Price = p.Price
	dp.Images = p.Images
	dp.Specs = domain.ProductSpecs{
		Diameters: p.Specs.Diameter,
		Width:     p.Specs.Width,
		PCD:       p.Specs.PCD,
		ETs:       p.Specs.ET,
		DIA:       p.Specs.DIA,
	}

	dp.Variants = make([]domain.Variant, len(p.Variants))
	for i, v := range p.Variants {
		width := v.Width
		if width == "" {
			width = p.Specs.Width
		}
		dp.Variants[i] = domain.Variant{
			ID:       v.ID,
			Diameter: v.Diameter,
			Width:    width,
			ET:       v.ET,
			Price:    v.Price,
			Stock:    v.Stock,
		}
	}
	return dp
}

func (r review) toDomain() domain.Review {
	return domain.Review{
		ID:        r.ID,
		ProductID: r.ProductID,
		Model:     r.Model,
		Author:    r.Author,
		Rating:    r.Rating,
		Date:      r.Date,
		Text:      r.Text,
		Likes:     r.Likes,
		Dislikes:  r.Dislikes,
		Images:    r.Images,
		Avatar:    r.Avatar,
	}
}

func (o order) toDomain() domain.Order {
	return domain.Order{
		Number:    o.Number,
		ProductID: o.ProductID,
		Model:     o.Model,
		Name:      o.Name,
		Date:      o.Date,
	}
}
