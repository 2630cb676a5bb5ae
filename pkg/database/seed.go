package database

import (
	"budayana_backend/internal/model"
	"encoding/json"
	"log"

	"gorm.io/gorm"
)

// SeedContent loads the default island catalog when the database is empty.
// Content rows are read-only at runtime, so seeding only ever runs against
// a fresh database.
func SeedContent(db *gorm.DB) error {
	var count int64
	db.Model(&model.Island{}).Count(&count)
	if count > 0 {
		return nil
	}

	islands := defaultIslands()
	for i := range islands {
		if err := db.Create(&islands[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("Seeded %d islands with default content", len(islands))
	return nil
}

func mcq(stage model.StageType, order int, prompt string, options []string, correct int) model.Question {
	q := model.Question{
		StageType:    stage,
		QuestionType: model.QuestionMCQ,
		Prompt:       prompt,
		Order:        order,
	}
	for i, label := range options {
		q.Options = append(q.Options, model.AnswerOption{
			Label:     label,
			Order:     i,
			IsCorrect: i == correct,
		})
	}
	return q
}

func trueFalse(stage model.StageType, order int, prompt string, answer bool) model.Question {
	return model.Question{
		StageType:    stage,
		QuestionType: model.QuestionTrueFalse,
		Prompt:       prompt,
		Order:        order,
		Options: []model.AnswerOption{
			{Label: "BENAR", Order: 0, IsCorrect: answer},
			{Label: "SALAH", Order: 1, IsCorrect: !answer},
		},
	}
}

type dragItem struct {
	ID    string
	Label string
}

// dragDrop seeds a sequencing question. Items are listed in display order;
// canonical holds the item ids in the correct order.
func dragDrop(order int, prompt string, items []dragItem, canonical []string) model.Question {
	raw, _ := json.Marshal(canonical)
	q := model.Question{
		StageType:    model.StageStory,
		QuestionType: model.QuestionDragDrop,
		Prompt:       prompt,
		Order:        order,
		DragOrder:    string(raw),
	}
	for i, item := range items {
		q.Options = append(q.Options, model.AnswerOption{
			UUIDBase: model.UUIDBase{ID: item.ID},
			Label:    item.Label,
			Order:    i,
		})
	}
	return q
}

func essay(order int, prompt string) model.Question {
	return model.Question{
		StageType:    model.StageStory,
		QuestionType: model.QuestionEssay,
		Prompt:       prompt,
		Order:        order,
	}
}

// sulawesiTestQuestions is shared between the pre-test and the post-test,
// mirroring the published question bank.
func sulawesiTestQuestions(stage model.StageType) []model.Question {
	return []model.Question{
		mcq(stage, 1, "Siapakah tokoh yang ditakuti oleh anak-anak dalam cerita ini?",
			[]string{"A. Nenek Pakande", "B. Nenek Rara", "C. Putri Kemuning", "D. Mak Lampir"}, 0),
		mcq(stage, 2, "Di mana anak-anak biasanya bermain sebelum diculik?",
			[]string{"A. Di hutan", "B. Di lapangan", "C. Di sungai", "D. Di kebun"}, 1),
		mcq(stage, 3, "Mengapa anak-anak dilarang bermain terlalu jauh dari rumah?",
			[]string{"A. Karena hari sangat panas", "B. Karena takut bertemu Nenek Pakande", "C. Karena mereka harus membantu memasak", "D. Karena banyak hewan liar"}, 1),
		mcq(stage, 4, "Bagaimana ciri khas Nenek Pakande dalam cerita?",
			[]string{"A. Berpakaian rapi dan wangi", "B. Baik hati kepada anak-anak", "C. Berpenampilan seram dan membawa keranjang", "D. Suka memberi hadiah"}, 2),
		mcq(stage, 5, "Mengapa anak-anak mudah ditipu oleh Nenek Pakande?",
			[]string{"A. Karena mereka lapar", "B. Karena mereka tidak mengenalnya", "C. Karena mereka mudah percaya pada orang asing", "D. Karena mereka ingin bermain lebih lama"}, 2),
	}
}

func sulawesiStoryQuestions() []model.Question {
	qs := []model.Question{
		mcq(model.StageStory, 1, "Apa yang sedang dilakukan anak-anak di ladang?",
			[]string{"Berlari-larian", "Main layangan", "Main kelereng", "Memancing"}, 0),
		trueFalse(model.StageStory, 2, "Nenek Pakande datang pada pagi hari.", false),
		mcq(model.StageStory, 3, "Benda apa yang dibawa Nenek Pakande untuk menangkap anak-anak?",
			[]string{"Panci", "Jaring", "Karung", "Perangkap"}, 2),
		mcq(model.StageStory, 4, "Ke mana Nenek Pakande membawa anak-anak yang diculik?",
			[]string{"Kota", "Hutan", "Gunung", "Sawah"}, 1),
		dragDrop(5, "Urutkan kejadian di bawah ini:",
			[]dragItem{
				{"sulawesi-search", "Anak-anak ketakutan"},
				{"sulawesi-play", "Anak-anak bermain di ladang"},
				{"sulawesi-home", "Warga mencari anak-anak"},
				{"sulawesi-appear", "Nenek Pakande muncul"},
				{"sulawesi-sunset", "Sore hari mulai datang"},
			},
			[]string{"sulawesi-play", "sulawesi-sunset", "sulawesi-appear", "sulawesi-search", "sulawesi-home"}),
		essay(6, "Ceritakan kembali dengan bahasamu sendiri, pesan apa yang kamu dapat dari cerita Nenek Pakande?"),
	}
	for i := range qs {
		qs[i].PageNumber = 2 * (i + 1)
		if qs[i].QuestionType == model.QuestionMCQ || qs[i].QuestionType == model.QuestionTrueFalse {
			qs[i].IncorrectMessage = "Uh oh... jawabannya kurang tepat, ayo coba lagi!"
		}
	}
	return qs
}

func jawaSlides() []model.Slide {
	pages := []string{
		"Di sebuah kerajaan yang megah bernama Prambanan, hiduplah seorang putri cantik bernama Roro Jonggrang. Suatu hari, negeri tetangga, Kerajaan Pengging, menyerang Prambanan.",
		"Setelah menang, Bandung Bondowoso melihat kecantikan Roro Jonggrang dan langsung jatuh hati. Namun Roro Jonggrang tidak menyukainya.",
		"Roro Jonggrang mengajukan syarat: seribu candi dalam satu malam. Bandung Bondowoso memanggil para jin untuk membantunya.",
		"Roro Jonggrang membangunkan para wanita desa untuk menumbuk padi dan menyalakan api besar, membuat suasana seperti fajar.",
		"Para jin lari ketakutan. Candi ke-seribu tidak selesai, dan Bandung Bondowoso mengutuk Roro Jonggrang menjadi arca yang melengkapi candi terakhir.",
	}
	slides := make([]model.Slide, len(pages))
	for i, content := range pages {
		slides[i] = model.Slide{PageNumber: i + 1, Content: content}
	}
	return slides
}

func defaultIslands() []model.Island {
	return []model.Island{
		{
			Slug:        "sulawesi",
			Name:        "Sulawesi",
			StoryTitle:  "Nenek Pakande",
			UnlockOrder: 1,
			Stories: []model.Story{
				{
					Title:     "Nenek Pakande",
					Subtitle:  "Legenda dari Sulawesi Selatan",
					StoryType: model.StoryInteractive,
					Order:     1,
					Questions: append(append(
						sulawesiTestQuestions(model.StagePreTest),
						sulawesiStoryQuestions()...),
						sulawesiTestQuestions(model.StagePostTest)...),
				},
			},
		},
		{
			Slug:        "sumatra",
			Name:        "Sumatra",
			StoryTitle:  "Malin Kundang",
			UnlockOrder: 2,
			Stories: []model.Story{
				{
					Title:     "Malin Kundang",
					Subtitle:  "Legenda dari Sumatra Barat",
					StoryType: model.StoryInteractive,
					Order:     2,
				},
			},
		},
		{
			Slug:        "jawa",
			Name:        "Jawa",
			StoryTitle:  "Roro Jonggrang",
			UnlockOrder: 3,
			Stories: []model.Story{
				{
					Title:     "Roro Jonggrang",
					Subtitle:  "Legenda Candi Prambanan",
					StoryType: model.StoryStatic,
					Order:     3,
					Slides:    jawaSlides(),
				},
			},
		},
		{
			Slug:        "papua",
			Name:        "Papua",
			StoryTitle:  "Legenda Danau Sentani",
			UnlockOrder: 4,
			Stories: []model.Story{
				{
					Title:     "Legenda Danau Sentani",
					Subtitle:  "Cerita rakyat dari Papua",
					StoryType: model.StoryStatic,
					Order:     4,
				},
			},
		},
	}
}
