package handlers

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/Iros-07/PhoneKrisha/internal/models"
)

// parseAdFilter maps /ads query parameters onto an AdFilter. Absent
// parameters impose no constraint; malformed numbers are an error.
func parseAdFilter(q url.Values) (*models.AdFilter, error) {
	filter := &models.AdFilter{
		Title:     q.Get("title"),
		City:      q.Get("city"),
		AdType:    q.Get("ad_type"),
		HouseType: q.Get("house_type"),
		Complex:   q.Get("complex"),
	}

	intParam := func(name string) (*int, error) {
		raw := q.Get(name)
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s", name)
		}
		return &n, nil
	}

	var err error
	if filter.Rooms, err = intParam("rooms"); err != nil {
		return nil, err
	}
	if filter.FloorMin, err = intParam("floor_min"); err != nil {
		return nil, err
	}
	if filter.FloorMax, err = intParam("floor_max"); err != nil {
		return nil, err
	}
	if filter.YearBuiltMin, err = intParam("year_built_min"); err != nil {
		return nil, err
	}
	if filter.YearBuiltMax, err = intParam("year_built_max"); err != nil {
		return nil, err
	}

	if raw := q.Get("price_min"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price_min")
		}
		filter.PriceMin = &n
	}
	if raw := q.Get("price_max"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price_max")
		}
		filter.PriceMax = &n
	}

	if raw := q.Get("area_min"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid area_min")
		}
		filter.AreaMin = &f
	}
	if raw := q.Get("area_max"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid area_max")
		}
		filter.AreaMax = &f
	}

	return filter, nil
}
