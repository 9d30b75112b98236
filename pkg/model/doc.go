// Package model defines the leaderboard entry shape and the immutable
// dataset that the rest of the engine computes over.
//
// A Dataset is replaced wholesale on every refresh. Its pointer identity is
// the "model set reference": anything derived from a dataset (counts, static
// ranks) stays valid until a different *Dataset is loaded.
//
// Entries are decoded from the formatted leaderboard JSON array:
//
//	[
//	  {
//	    "id": "org/model_float16",
//	    "model": {"name": "org/model", "precision": "float16", "type": "chat", "average_score": 61.2},
//	    "evaluations": {"english_average": {"name": "English", "value": 0.7, "normalized_score": 70.1}},
//	    "features": {"is_moe": false, "is_highlighted_by_maintainer": true},
//	    "metadata": {"params_billions": 7.24, "hub_license": "apache-2.0"}
//	  }
//	]
//
// Malformed parameter counts decode to NaN instead of failing the whole file.
package model
