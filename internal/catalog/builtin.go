package catalog

import "github.com/felixgeelhaar/etltrainer/internal/domain"

func builtinPatterns() []domain.Pattern {
	return []domain.Pattern{
		{
			ID:          domain.PatternDate,
			Name:        "Date function migration",
			Description: "Date function migration (Oracle TO_DATE -> Snowflake TO_TIMESTAMP_NTZ)",
			Samples: []string{
				"SELECT TO_DATE('2023-01-01', 'YYYY-MM-DD') FROM T_SALES;",
				"INSERT INTO T_LOGS VALUES (TO_DATE('2023/05/20', 'YYYY/MM/DD'));",
				"UPDATE T_CUST SET BIRTH_DATE = TO_DATE('19900101', 'YYYYMMDD');",
			},
		},
		{
			ID:          domain.PatternPunct,
			Name:        "Full-width punctuation cleanup",
			Description: "Full-width punctuation cleanup (full-width -> half-width ASCII)",
			Samples: []string{
				"SELECT * FROM T_A WHERE ID ＝ '123';",
				"SELECT * FROM T_B WHERE PRICE ＞ 1000;",
				"SELECT NAME FROM T_C WHERE (ID ＝ 1 OR ID ＝ 2);",
			},
		},
		{
			ID:          domain.PatternNull,
			Name:        "Null handling",
			Description: "Null handling (empty string comparison -> IsNull()/SetNull())",
			Samples: []string{
				`If Link.Col1 = "" Then ...`,
				`If Trim(Link.Name) = "" Then ...`,
				`StageVar = If Link.Date = "" Then ... Else ...`,
			},
		},
		{
			ID:          domain.PatternComposite,
			Name:        "Mixed migration",
			Description: "Mixed migration (date functions, full-width punctuation and null handling together)",
			Composite:   true,
			Samples: []string{
				"SELECT TO_DATE('2023-01-01') FROM T_A WHERE ID ＝ '999';",
				`If Link.Date = "" Then Result = TO_DATE('20220101') ...`,
				"UPDATE T_X SET VAL = 'A' WHERE CODE ＞ 50 AND DATE_COL = TO_DATE('2023-12-31');",
			},
		},
	}
}
