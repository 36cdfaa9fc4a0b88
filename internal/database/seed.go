// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/easyflix/internal/logging"
	"github.com/tomtom215/easyflix/internal/models"
)

type seedTitle struct {
	name     string
	released string
	rating   string
	director string
	length   int
	genre    string
	tier     models.Tier
	price    models.Money
}

// defaultCatalog is the launch catalog: movies first, then TV shows.
// Basic titles carry no price.
var defaultCatalog = []seedTitle{
	{"The Matrix", "1999-03-31", "M", "Lana Wachowski", 136, "Sci-Fi", models.TierPremium, 699},
	{"Inception", "2010-07-16", "M", "Christopher Nolan", 148, "Sci-Fi", models.TierPremium, 799},
	{"The Dark Knight", "2008-07-18", "M", "Christopher Nolan", 152, "Action", models.TierPremium, 799},
	{"Pulp Fiction", "1994-10-14", "MA15+", "Quentin Tarantino", 154, "Crime", models.TierPremium, 699},
	{"The Godfather", "1972-03-24", "MA15+", "Francis Ford Coppola", 175, "Crime", models.TierPremium, 899},
	{"Schindler's List", "1993-02-04", "MA15+", "Steven Spielberg", 195, "Drama", models.TierPremium, 799},
	{"Goodfellas", "1990-09-21", "MA15+", "Martin Scorsese", 146, "Crime", models.TierPremium, 699},
	{"The Shawshank Redemption", "1994-09-23", "MA15+", "Frank Darabont", 142, "Drama", models.TierPremium, 899},
	{"Fight Club", "1999-10-15", "MA15+", "David Fincher", 139, "Drama", models.TierPremium, 799},
	{"Interstellar", "2014-11-07", "M", "Christopher Nolan", 169, "Sci-Fi", models.TierPremium, 899},
	{"Blade Runner 2049", "2017-10-06", "M", "Denis Villeneuve", 164, "Sci-Fi", models.TierPremium, 799},
	{"Mad Max: Fury Road", "2015-05-15", "MA15+", "George Miller", 120, "Action", models.TierPremium, 699},
	{"John Wick", "2014-10-24", "MA15+", "Chad Stahelski", 101, "Action", models.TierPremium, 599},
	{"The Wolf of Wall Street", "2013-12-25", "MA15+", "Martin Scorsese", 180, "Biography", models.TierPremium, 799},
	{"Parasite", "2019-05-30", "MA15+", "Bong Joon-ho", 132, "Thriller", models.TierPremium, 799},
	{"Forrest Gump", "1994-07-06", "M", "Robert Zemeckis", 142, "Drama", models.TierBasic, 0},
	{"The Lion King", "1994-06-24", "G", "Roger Allers", 88, "Animation", models.TierBasic, 0},
	{"Toy Story", "1995-11-22", "G", "John Lasseter", 81, "Animation", models.TierBasic, 0},
	{"Finding Nemo", "2003-05-30", "G", "Andrew Stanton", 100, "Animation", models.TierBasic, 0},
	{"Shrek", "2001-05-18", "PG", "Andrew Adamson", 90, "Animation", models.TierBasic, 0},
	{"The Incredibles", "2004-11-05", "PG", "Brad Bird", 115, "Animation", models.TierBasic, 0},
	{"Up", "2009-05-29", "PG", "Pete Docter", 96, "Animation", models.TierBasic, 0},
	{"Wall-E", "2008-06-27", "G", "Andrew Stanton", 98, "Animation", models.TierBasic, 0},
	{"Moana", "2016-11-23", "PG", "Ron Clements", 107, "Animation", models.TierBasic, 0},
	{"Frozen", "2013-11-27", "PG", "Chris Buck", 102, "Animation", models.TierBasic, 0},
	{"Spider-Man: Into the Spider-Verse", "2018-12-14", "PG", "Bob Persichetti", 117, "Animation", models.TierBasic, 0},
	{"The Avengers", "2012-05-04", "M", "Joss Whedon", 143, "Action", models.TierBasic, 0},
	{"Guardians of the Galaxy", "2014-08-01", "M", "James Gunn", 121, "Action", models.TierBasic, 0},
	{"Iron Man", "2008-05-02", "M", "Jon Favreau", 126, "Action", models.TierBasic, 0},
	{"Captain America: The Winter Soldier", "2014-04-04", "M", "Anthony Russo", 136, "Action", models.TierBasic, 0},
	{"Breaking Bad", "2008-01-20", "MA15+", "Vince Gilligan", 47, "Crime", models.TierPremium, 899},
	{"Game of Thrones", "2011-04-17", "MA15+", "David Benioff", 57, "Fantasy", models.TierPremium, 999},
	{"The Sopranos", "1999-01-10", "MA15+", "David Chase", 55, "Crime", models.TierPremium, 899},
	{"The Wire", "2002-06-02", "MA15+", "David Simon", 60, "Crime", models.TierPremium, 899},
	{"Better Call Saul", "2015-02-08", "MA15+", "Vince Gilligan", 47, "Crime", models.TierPremium, 799},
	{"Westworld", "2016-10-02", "MA15+", "Jonathan Nolan", 62, "Sci-Fi", models.TierPremium, 899},
	{"House of Cards", "2013-02-01", "MA15+", "Beau Willimon", 51, "Political", models.TierPremium, 799},
	{"Stranger Things", "2016-07-15", "M", "The Duffer Brothers", 51, "Sci-Fi", models.TierPremium, 799},
	{"The Crown", "2016-11-04", "M", "Peter Morgan", 58, "Biography", models.TierPremium, 799},
	{"Ozark", "2017-07-21", "MA15+", "Bill Dubuque", 60, "Crime", models.TierPremium, 799},
	{"Friends", "1994-09-22", "PG", "David Crane", 22, "Comedy", models.TierBasic, 0},
	{"The Office", "2005-03-24", "PG", "Greg Daniels", 22, "Comedy", models.TierBasic, 0},
	{"Parks and Recreation", "2009-04-09", "PG", "Greg Daniels", 22, "Comedy", models.TierBasic, 0},
	{"Brooklyn Nine-Nine", "2013-09-17", "M", "Dan Goor", 22, "Comedy", models.TierBasic, 0},
	{"How I Met Your Mother", "2005-09-19", "M", "Carter Bays", 22, "Comedy", models.TierBasic, 0},
	{"The Big Bang Theory", "2007-09-24", "PG", "Chuck Lorre", 22, "Comedy", models.TierBasic, 0},
	{"Modern Family", "2009-09-23", "PG", "Christopher Lloyd", 22, "Comedy", models.TierBasic, 0},
	{"Seinfeld", "1989-07-05", "PG", "Larry David", 22, "Comedy", models.TierBasic, 0},
	{"The Simpsons", "1989-12-17", "PG", "Matt Groening", 22, "Animation", models.TierBasic, 0},
	{"Avatar: The Last Airbender", "2005-02-21", "PG", "Michael Dante DiMartino", 23, "Animation", models.TierBasic, 0},
}

// SeedCatalog loads the default catalog when the titles table is empty and
// returns the number of titles inserted.
func (db *DB) SeedCatalog(ctx context.Context) (int, error) {
	inserted := 0
	err := db.withTx(ctx, "seed_catalog", func(ctx context.Context, tx *sql.Tx) error {
		var existing int64
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM titles").Scan(&existing); err != nil {
			return fmt.Errorf("failed to count titles: %w", err)
		}
		if existing > 0 {
			return nil
		}
		for _, s := range defaultCatalog {
			released, err := models.ParseDate(s.released)
			if err != nil {
				return fmt.Errorf("seed title %q: %w", s.name, err)
			}
			nt := models.NewTitle{
				Name:        s.name,
				ReleaseDate: released,
				Rating:      s.rating,
				Director:    s.director,
				Length:      s.length,
				Genre:       s.genre,
				Tier:        s.tier,
			}
			if s.tier == models.TierPremium {
				price := s.price
				nt.Price = &price
			}
			if _, err := insertTitle(ctx, tx, nt); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if inserted > 0 {
		logging.Info().Int("titles", inserted).Msg("Seeded default catalog")
	}
	return inserted, nil
}
