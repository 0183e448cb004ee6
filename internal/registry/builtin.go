package registry

// Builtin returns the descriptors of the resolvers exposed by the trade
// statistics gateway.
func Builtin() []Descriptor {
	return []Descriptor{
		{
			Key:       "UNION_REF_HSCODE",
			QueryName: "uNION_REF_HSCODEs",
			Fields: []string{
				"Report_ID", "Industry_ID", "Industry", "HS_Code_Group", "HS_Code", "HS_Code_ZH", "Unit_Name",
				"Unit",
			},
			NumericFields: []string{
				"Industry_ID",
			},
			Description: "HS code reference: industry classification, HS code mapping and Chinese product names.",
		},
		{
			Key:       "trade_monthly_by_code_country",
			QueryName: "trade_monthly_by_code_countries",
			Fields: []string{
				"PERIOD_MONTH", "YEAR", "MONTH", "TRADE_FLOW", "HS_CODE", "HS_CODE_ZH", "COUNTRY_ID",
				"COUNTRY_COMM_ZH", "TRADE_VALUE_USD_AMT", "TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT", "TRADE_QUANT",
				"UNIT_PRICE_USD_PER_KG", "ETL_DT",
			},
			NumericFields: []string{
				"YEAR", "MONTH", "TRADE_VALUE_USD_AMT", "TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT", "TRADE_QUANT",
				"UNIT_PRICE_USD_PER_KG",
			},
			Description: "Monthly trade by HS code and country, down to single commodity codes.",
		},
		{
			Key:       "trade_monthly_by_group_country",
			QueryName: "trade_monthly_by_group_countries",
			Fields: []string{
				"PERIOD_MONTH", "YEAR", "MONTH", "TRADE_FLOW", "INDUSTRY_ID", "INDUSTRY", "HS_CODE_GROUP",
				"COUNTRY_ID", "COUNTRY_COMM_ZH", "AREA_ID", "AREA_NM", "TRADE_VALUE_USD_AMT",
				"TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT", "TRADE_QUANT", "UNIT_PRICE_USD_PER_KG", "ETL_DT",
			},
			NumericFields: []string{
				"YEAR", "MONTH", "INDUSTRY_ID", "TRADE_VALUE_USD_AMT", "TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT",
				"TRADE_QUANT", "UNIT_PRICE_USD_PER_KG",
			},
			Description: "Monthly trade by industry group and country, with area membership.",
		},
		{
			Key:       "UNION_REF_COUNTRY_AREA",
			QueryName: "uNION_REF_COUNTRY_AREAs",
			Fields: []string{
				"ISO3", "COUNTRY_COMM_ZH", "COUNTRY_COMM_EN", "AREA_ID", "AREA_NM", "ROW", "AREA_sort",
			},
			NumericFields: []string{
				"ROW", "AREA_sort",
			},
			Description: "Country and area reference: ISO3 codes, Chinese and English names, area membership.",
		},
		{
			Key:       "trade_yearly_total",
			QueryName: "trade_yearly_totals",
			Fields: []string{
				"YEAR", "TRADE_FLOW", "INDUSTRY_ID", "INDUSTRY", "HS_CODE_GROUP", "TRADE_VALUE_USD_AMT",
				"TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT", "TRADE_QUANT", "UNIT_PRICE_USD_PER_KG", "ETL_DT",
			},
			NumericFields: []string{
				"YEAR", "INDUSTRY_ID", "TRADE_VALUE_USD_AMT", "TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT",
				"TRADE_QUANT", "UNIT_PRICE_USD_PER_KG",
			},
			Description: "Yearly trade totals by industry group without a country dimension.",
		},
		{
			Key:       "trade_monthly_total",
			QueryName: "trade_monthly_totals",
			Fields: []string{
				"PERIOD_MONTH", "YEAR", "MONTH", "TRADE_FLOW", "INDUSTRY_ID", "INDUSTRY", "HS_CODE_GROUP",
				"TRADE_VALUE_USD_AMT", "TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT", "TRADE_QUANT",
				"UNIT_PRICE_USD_PER_KG", "ETL_DT",
			},
			NumericFields: []string{
				"YEAR", "MONTH", "INDUSTRY_ID", "TRADE_VALUE_USD_AMT", "TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT",
				"TRADE_QUANT", "UNIT_PRICE_USD_PER_KG",
			},
			Description: "Monthly trade totals by industry group without a country dimension.",
		},
		{
			Key:       "trade_monthly_by_country",
			QueryName: "trade_monthly_by_countries",
			Fields: []string{
				"PERIOD_MONTH", "YEAR", "MONTH", "TRADE_FLOW", "COUNTRY_ID", "COUNTRY_COMM_ZH", "AREA_ID",
				"AREA_NM", "INDUSTRY_ID", "INDUSTRY", "HS_CODE_GROUP", "TRADE_VALUE_USD_AMT",
				"TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT", "TRADE_QUANT", "UNIT_PRICE_USD_PER_KG", "ETL_DT",
			},
			NumericFields: []string{
				"YEAR", "MONTH", "INDUSTRY_ID", "TRADE_VALUE_USD_AMT", "TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT",
				"TRADE_QUANT", "UNIT_PRICE_USD_PER_KG",
			},
			Description: "Monthly trade by country with area membership.",
		},
		{
			Key:       "trade_yearly_by_country",
			QueryName: "trade_yearly_by_countries",
			Fields: []string{
				"YEAR", "TRADE_FLOW", "COUNTRY_ID", "COUNTRY_COMM_ZH", "AREA_ID", "AREA_NM", "INDUSTRY_ID",
				"INDUSTRY", "HS_CODE_GROUP", "TRADE_VALUE_USD_AMT", "TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT",
				"TRADE_QUANT", "UNIT_PRICE_USD_PER_KG", "ETL_DT",
			},
			NumericFields: []string{
				"YEAR", "INDUSTRY_ID", "TRADE_VALUE_USD_AMT", "TRADE_VALUE_TWD_AMT", "TRADE_WEIGHT",
				"TRADE_QUANT", "UNIT_PRICE_USD_PER_KG",
			},
			Description: "Yearly trade by country with area membership.",
		},
		{
			Key:       "trade_monthly_growth_total",
			QueryName: "trade_monthly_growth_totals",
			Fields: []string{
				"PERIOD_MONTH", "YEAR", "MONTH", "TRADE_FLOW", "TRADE_VALUE_USD_AMT", "TRADE_WEIGHT",
				"UNIT_PRICE_USD_PER_KG", "PREV_YEAR_TRADE_VALUE_USD_AMT", "YOY_DELTA_TRADE_VALUE_USD_AMT",
				"YOY_GROWTH_RATE_TRADE_VALUE_USD", "PREV_MONTH_TRADE_VALUE_USD_AMT",
				"MOM_DELTA_TRADE_VALUE_USD_AMT", "MOM_GROWTH_RATE_TRADE_VALUE_USD", "ETL_DT", "INDUSTRY_ID",
				"INDUSTRY", "HS_CODE_GROUP",
			},
			NumericFields: []string{
				"YEAR", "MONTH", "TRADE_VALUE_USD_AMT", "TRADE_WEIGHT", "UNIT_PRICE_USD_PER_KG",
				"PREV_YEAR_TRADE_VALUE_USD_AMT", "YOY_DELTA_TRADE_VALUE_USD_AMT",
				"YOY_GROWTH_RATE_TRADE_VALUE_USD", "PREV_MONTH_TRADE_VALUE_USD_AMT",
				"MOM_DELTA_TRADE_VALUE_USD_AMT", "MOM_GROWTH_RATE_TRADE_VALUE_USD", "INDUSTRY_ID",
			},
			Description: "Monthly trade growth with year-over-year and month-over-month rates.",
		},
		{
			Key:       "trade_yearly_growth_total",
			QueryName: "trade_yearly_growth_totals",
			Fields: []string{
				"YEAR", "TRADE_FLOW", "TRADE_VALUE_USD_AMT", "TRADE_WEIGHT", "UNIT_PRICE_USD_PER_KG",
				"PREV_YEAR_TRADE_VALUE_USD_AMT", "YOY_DELTA_TRADE_VALUE_USD_AMT",
				"YOY_GROWTH_RATE_TRADE_VALUE_USD", "PREV_YEAR_TRADE_WEIGHT", "YOY_DELTA_TRADE_WEIGHT",
				"YOY_GROWTH_RATE_TRADE_WEIGHT", "PREV_YEAR_UNIT_PRICE_USD_PER_KG",
				"YOY_DELTA_UNIT_PRICE_USD_PER_KG", "YOY_GROWTH_RATE_UNIT_PRICE_USD_PER_KG", "ETL_DT",
				"INDUSTRY_ID", "INDUSTRY",
			},
			NumericFields: []string{
				"YEAR", "TRADE_VALUE_USD_AMT", "TRADE_WEIGHT", "UNIT_PRICE_USD_PER_KG",
				"PREV_YEAR_TRADE_VALUE_USD_AMT", "YOY_DELTA_TRADE_VALUE_USD_AMT",
				"YOY_GROWTH_RATE_TRADE_VALUE_USD", "PREV_YEAR_TRADE_WEIGHT", "YOY_DELTA_TRADE_WEIGHT",
				"YOY_GROWTH_RATE_TRADE_WEIGHT", "PREV_YEAR_UNIT_PRICE_USD_PER_KG",
				"YOY_DELTA_UNIT_PRICE_USD_PER_KG", "YOY_GROWTH_RATE_UNIT_PRICE_USD_PER_KG", "INDUSTRY_ID",
			},
			Description: "Yearly trade growth for value, weight and unit price.",
		},
		{
			Key:       "trade_monthly_growth_by_country",
			QueryName: "trade_monthly_growth_by_countries",
			Fields: []string{
				"PERIOD_MONTH", "YEAR", "MONTH", "TRADE_FLOW", "INDUSTRY_ID", "INDUSTRY", "HS_CODE_GROUP",
				"COUNTRY_ID", "COUNTRY_COMM_ZH", "AREA_ID", "AREA_NM", "TRADE_VALUE_USD_AMT", "TRADE_WEIGHT",
				"UNIT_PRICE_USD_PER_KG", "PREV_YEAR_TRADE_VALUE_USD_AMT", "YOY_DELTA_TRADE_VALUE_USD_AMT",
				"YOY_GROWTH_RATE_TRADE_VALUE_USD", "PREV_YEAR_TRADE_WEIGHT", "YOY_DELTA_TRADE_WEIGHT",
				"YOY_GROWTH_RATE_TRADE_WEIGHT", "PREV_YEAR_UNIT_PRICE_USD_PER_KG",
				"YOY_DELTA_UNIT_PRICE_USD_PER_KG", "YOY_GROWTH_RATE_UNIT_PRICE_USD_PER_KG",
				"PREV_MONTH_TRADE_VALUE_USD_AMT", "MOM_DELTA_TRADE_VALUE_USD_AMT",
				"MOM_GROWTH_RATE_TRADE_VALUE_USD", "PREV_MONTH_TRADE_WEIGHT", "MOM_DELTA_TRADE_WEIGHT",
				"MOM_GROWTH_RATE_TRADE_WEIGHT", "PREV_MONTH_UNIT_PRICE_USD_PER_KG",
				"MOM_DELTA_UNIT_PRICE_USD_PER_KG", "MOM_GROWTH_RATE_UNIT_PRICE_USD_PER_KG", "ETL_DT",
			},
			NumericFields: []string{
				"YEAR", "MONTH", "INDUSTRY_ID", "TRADE_VALUE_USD_AMT", "TRADE_WEIGHT", "UNIT_PRICE_USD_PER_KG",
				"PREV_YEAR_TRADE_VALUE_USD_AMT", "YOY_DELTA_TRADE_VALUE_USD_AMT",
				"YOY_GROWTH_RATE_TRADE_VALUE_USD", "PREV_YEAR_TRADE_WEIGHT", "YOY_DELTA_TRADE_WEIGHT",
				"YOY_GROWTH_RATE_TRADE_WEIGHT", "PREV_YEAR_UNIT_PRICE_USD_PER_KG",
				"YOY_DELTA_UNIT_PRICE_USD_PER_KG", "YOY_GROWTH_RATE_UNIT_PRICE_USD_PER_KG",
				"PREV_MONTH_TRADE_VALUE_USD_AMT", "MOM_DELTA_TRADE_VALUE_USD_AMT",
				"MOM_GROWTH_RATE_TRADE_VALUE_USD", "PREV_MONTH_TRADE_WEIGHT", "MOM_DELTA_TRADE_WEIGHT",
				"MOM_GROWTH_RATE_TRADE_WEIGHT", "PREV_MONTH_UNIT_PRICE_USD_PER_KG",
				"MOM_DELTA_UNIT_PRICE_USD_PER_KG", "MOM_GROWTH_RATE_UNIT_PRICE_USD_PER_KG",
			},
			Description: "Monthly trade growth per country for value, weight and unit price.",
		},
		{
			Key:       "trade_monthly_share_by_country",
			QueryName: "trade_monthly_share_by_countries",
			Fields: []string{
				"PERIOD_MONTH", "YEAR", "MONTH", "TRADE_FLOW", "INDUSTRY_ID", "INDUSTRY", "HS_CODE_GROUP",
				"COUNTRY_ID", "COUNTRY_COMM_ZH", "AREA_ID", "AREA_NM", "TRADE_VALUE_USD_AMT",
				"TOTAL_TRADE_VALUE_USD_AMT", "SHARE_RATIO_TRADE_VALUE_USD", "TRADE_WEIGHT",
				"TOTAL_TRADE_WEIGHT", "SHARE_RATIO_TRADE_WEIGHT", "UNIT_PRICE_USD_PER_KG", "ETL_DT",
			},
			NumericFields: []string{
				"YEAR", "MONTH", "INDUSTRY_ID", "TRADE_VALUE_USD_AMT", "TOTAL_TRADE_VALUE_USD_AMT",
				"SHARE_RATIO_TRADE_VALUE_USD", "TRADE_WEIGHT", "TOTAL_TRADE_WEIGHT",
				"SHARE_RATIO_TRADE_WEIGHT", "UNIT_PRICE_USD_PER_KG",
			},
			Description: "Monthly share of total trade per country by value and weight.",
		},
		{
			Key:       "trade_yearly_share_by_country",
			QueryName: "trade_yearly_share_by_countries",
			Fields: []string{
				"YEAR", "TRADE_FLOW", "COUNTRY_ID", "COUNTRY_COMM_ZH", "AREA_ID", "AREA_NM",
				"TRADE_VALUE_USD_AMT", "TOTAL_TRADE_VALUE_USD_AMT", "SHARE_RATIO_TRADE_VALUE_USD",
				"TRADE_WEIGHT", "TOTAL_TRADE_WEIGHT", "SHARE_RATIO_TRADE_WEIGHT", "UNIT_PRICE_USD_PER_KG",
				"ETL_DT", "INDUSTRY_ID", "INDUSTRY", "HS_CODE_GROUP",
			},
			NumericFields: []string{
				"YEAR", "TRADE_VALUE_USD_AMT", "TOTAL_TRADE_VALUE_USD_AMT", "SHARE_RATIO_TRADE_VALUE_USD",
				"TRADE_WEIGHT", "TOTAL_TRADE_WEIGHT", "SHARE_RATIO_TRADE_WEIGHT", "UNIT_PRICE_USD_PER_KG",
				"INDUSTRY_ID",
			},
			Description: "Yearly share of total trade per country by value and weight.",
		},
		{
			Key:       "TXN_MOF_NON_PROTECT_MT",
			QueryName: "tXN_MOF_NON_PROTECT_MTs",
			Fields: []string{
				"TXN_DT", "HS_CODE", "HS_CODE_ZH", "HS_CODE_EN", "COUNTRY_ID", "COUNTRY_ZH", "COUNTRY_EN",
				"COUNTRY_COMM_ZH", "COUNTRY_COMM_EN", "TRADE_FLOW", "TRADE_VALUE_TWD_AMT", "TRADE_QUANT",
				"TRADE_WEIGHT_ORG", "TRADE_WEIGHT", "RATE_VALUE", "TRADE_VALUE_USD_AMT", "ETL_DT",
			},
			NumericFields: []string{
				"TRADE_VALUE_TWD_AMT", "TRADE_QUANT", "TRADE_WEIGHT_ORG", "TRADE_WEIGHT", "RATE_VALUE",
				"TRADE_VALUE_USD_AMT",
			},
			Description: "Customs transaction detail rows. Large table, prefer the aggregated resolvers.",
		},
	}
}
