package rating

// Package rating keeps Elo ratings for players and maps them onto named
// skill tiers. All mutations funnel through Service, which persists the
// whole dataset after every recorded result.
