package store

import "github.com/rubiojr/leaderboard/pkg/model"

func testEntry(id, precision, typ string, params model.Params, score float64, f model.Features) model.Entry {
	return model.Entry{
		ID:       id,
		Model:    model.Info{Name: "org/" + id, Precision: precision, Type: typ, AverageScore: &score},
		Features: f,
		Metadata: model.Metadata{ParamsBillions: params},
	}
}

func testDataset() *model.Dataset {
	return model.NewDataset([]model.Entry{
		testEntry("1", "float16", "chat", 7, 40, model.Features{IsHighlightedByMaintainer: true}),
		testEntry("2", "4bit", "pretrained", 70, 80, model.Features{IsMoE: true}),
		testEntry("3", "bfloat16", "fine-tuned", 2, 60, model.Features{}),
	})
}

func loaded() State {
	st, err := Reduce(NewState(), SetModels{Dataset: testDataset()})
	if err != nil {
		panic(err)
	}
	return st
}
